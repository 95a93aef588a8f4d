// Package cmd implements the shift command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/shift"
)

// app carries state shared by the commands of one root command
type app struct {
	v          *viper.Viper
	configFile string
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree with its own configuration state
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "shift",
		Short: "Run and migrate long-lived process instances",
		Long: `Shift runs process instances of deployed definitions and relocates
running instances between activities, keeping their execution tree,
variables, subscriptions and timers consistent.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default is ./shift.yaml)")
	root.AddCommand(
		a.deployCommand(),
		a.startCommand(),
		a.showCommand(),
		a.completeCommand(),
		a.triggerCommand("signal", "Deliver a signal to every waiting subscription of a process"),
		a.triggerCommand("message", "Deliver a message to the first waiting subscription of a process"),
		a.fireCommand(),
		a.migrateCommand(),
	)
	return root
}

func (a *app) initConfig() error {
	setDefaults(a.v)
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.SetConfigName("shift")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.config/shift")
	}
	a.v.SetEnvPrefix("SHIFT")
	// SHIFT_STORE_KIND for store.kind
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read configuration: %w", err)
		}
	}
	return nil
}

// open builds the engine from the loaded configuration
func (a *app) open(ctx context.Context) (*shift.Service, *shift.Config, error) {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return nil, nil, err
	}
	srv, err := shift.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return srv, cfg, nil
}
