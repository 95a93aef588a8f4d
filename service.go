package shift

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/viant/afs"
	ilog "github.com/viant/shift/internal/log"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/definition"
	pbolt "github.com/viant/shift/service/dao/process/bolt"
	pfs "github.com/viant/shift/service/dao/process/fs"
	pmemory "github.com/viant/shift/service/dao/process/memory"
	predis "github.com/viant/shift/service/dao/process/redis"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/lifecycle"
	"github.com/viant/shift/service/messaging"
	mmemory "github.com/viant/shift/service/messaging/memory"
	"github.com/viant/shift/service/migration"
	"github.com/viant/shift/service/processor"
	"github.com/viant/shift/service/scheduler"
	smemory "github.com/viant/shift/service/scheduler/memory"
	"github.com/viant/shift/service/subscription"
	"go.uber.org/multierr"
)

// Service wires the engine components
type Service struct {
	runtime      *Runtime
	logger       *slog.Logger
	processDAO   dao.Service[string, execution.Process]
	scheduler    scheduler.Service
	listeners    []event.Listener[event.Lifecycle]
	queue        messaging.Queue[event.Record]
	definitionFS afs.Service
	maxSteps     int
	closers      []func() error
	initErr      error
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	publisher := event.NewPublisher[event.Lifecycle](s.queue, s.listeners...)
	operator := lifecycle.New(publisher, subscription.New(), s.scheduler)
	var processorOptions []processor.Option
	if s.maxSteps > 0 {
		processorOptions = append(processorOptions, processor.WithMaxSteps(s.maxSteps))
	}
	s.runtime = &Runtime{
		logger:      s.logger,
		fs:          s.definitionFS,
		definitions: definition.New(s.definitionFS),
		processes:   s.processDAO,
		scheduler:   s.scheduler,
		publisher:   publisher,
		processor:   processor.New(operator, s.logger, processorOptions...),
		planner:     migration.NewPlanner(),
		executor:    migration.NewExecutor(operator),
		locks:       newLocks(),
	}
	if s.initErr != nil {
		s.logger.Warn("service initialisation incomplete", ilog.Error(s.initErr))
	}
}

func (s *Service) ensureBaseSetup() {
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.processDAO == nil {
		s.processDAO = pmemory.New()
	}
	if s.scheduler == nil {
		s.scheduler = smemory.New()
	}
	if s.definitionFS == nil {
		s.definitionFS = afs.New()
	}
}

// Runtime returns the engine runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Queue returns the queue receiving forwarded lifecycle events, nil when forwarding is off
func (s *Service) Queue() messaging.Queue[event.Record] {
	return s.queue
}

// Close releases store resources opened by NewFromConfig
func (s *Service) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}

// New creates a service; unset collaborators default to in-memory implementations
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

// NewFromConfig creates a service from configuration. Explicit options are
// applied after the configured ones, so they take precedence.
func NewFromConfig(ctx context.Context, cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var configured []Option
	configured = append(configured, WithLogger(newLogger(cfg.Log)), WithMaxSteps(cfg.MaxSteps))
	if cfg.Tracing.Enabled {
		configured = append(configured, WithTracing(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.OutputFile))
	}
	if cfg.Events.Forward {
		queueConfig := mmemory.DefaultConfig()
		queueConfig.QueueBuffer = cfg.Events.QueueBuffer
		configured = append(configured, WithQueue(mmemory.NewQueue[event.Record](queueConfig)))
	}
	processDAO, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	configured = append(configured, WithProcessDAO(processDAO))
	ret := &Service{}
	if closer != nil {
		ret.closers = append(ret.closers, closer)
	}
	ret.init(append(configured, options...))
	if ret.initErr != nil {
		_ = ret.Close()
		return nil, ret.initErr
	}
	if cfg.Definitions != "" {
		if err := ret.runtime.loadDefinitions(ctx, cfg.Definitions); err != nil {
			_ = ret.Close()
			return nil, err
		}
	}
	return ret, nil
}

func openStore(ctx context.Context, cfg StoreConfig) (dao.Service[string, execution.Process], func() error, error) {
	switch cfg.Kind {
	case StoreFS:
		ret, err := pfs.New(ctx, cfg.URL, nil)
		return ret, nil, err
	case StoreBolt:
		ret, err := pbolt.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return ret, ret.Close, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis %v: %w", cfg.Addr, err)
		}
		ret, err := predis.New(client, cfg.Prefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return ret, client.Close, nil
	default:
		return pmemory.New(), nil, nil
	}
}

func newLogger(cfg LogConfig) *slog.Logger {
	options := &slog.HandlerOptions{Level: ilog.Level(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, options))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options))
}
