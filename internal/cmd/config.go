package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/shift"
	"github.com/viant/shift/model/state"
	predis "github.com/viant/shift/service/dao/process/redis"
	"gopkg.in/yaml.v3"
)

// setDefaults registers every configuration key, which also lets
// AutomaticEnv override keys missing from the config file
func setDefaults(v *viper.Viper) {
	defaults := shift.DefaultConfig()
	v.SetDefault("store.kind", shift.StoreFS)
	v.SetDefault("store.url", ".shift/processes")
	v.SetDefault("store.path", ".shift/shift.db")
	v.SetDefault("store.addr", "localhost:6379")
	v.SetDefault("store.prefix", predis.DefaultPrefix)
	v.SetDefault("definitions", ".shift/definitions")
	v.SetDefault("events.forward", defaults.Events.Forward)
	v.SetDefault("events.queueBuffer", defaults.Events.QueueBuffer)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.serviceName", defaults.Tracing.ServiceName)
	v.SetDefault("tracing.serviceVersion", defaults.Tracing.ServiceVersion)
	v.SetDefault("tracing.outputFile", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("maxSteps", defaults.MaxSteps)
}

// loadConfig reads the configuration and resolves relative locations
func loadConfig(v *viper.Viper) (*shift.Config, error) {
	cfg := &shift.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Definitions != "" {
		cfg.Definitions = url.Normalize(cfg.Definitions, file.Scheme)
	}
	return cfg, nil
}

// parseVariables converts name=value pairs; values are decoded as YAML
// scalars so numbers and booleans keep their type
func parseVariables(pairs []string) (state.Parameters, error) {
	var ret state.Parameters
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, expected name=value", pair)
		}
		var value interface{} = text
		var decoded interface{}
		if err := yaml.Unmarshal([]byte(text), &decoded); err == nil && decoded != nil {
			switch decoded.(type) {
			case map[string]interface{}, []interface{}:
			default:
				value = decoded
			}
		}
		ret.Add(name, value)
	}
	return ret, nil
}
