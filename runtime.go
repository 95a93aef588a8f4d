package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/afs"
	"github.com/viant/shift/internal/clock"
	"github.com/viant/shift/internal/idgen"
	ilog "github.com/viant/shift/internal/log"
	"github.com/viant/shift/model/graph"
	"github.com/viant/shift/model/state"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/definition"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/lifecycle"
	"github.com/viant/shift/service/migration"
	"github.com/viant/shift/service/processor"
	"github.com/viant/shift/service/scheduler"
	"github.com/viant/shift/tracing"
	"go.uber.org/multierr"
)

// errUnchanged tells update to skip the commit
var errUnchanged = errors.New("process unchanged")

// Runtime executes operations against process instances. Every operation on
// one instance runs under that instance's lock on a freshly loaded copy,
// which is saved only when the whole operation succeeds.
type Runtime struct {
	logger      *slog.Logger
	fs          afs.Service
	definitions *definition.Service
	processes   dao.Service[string, execution.Process]
	scheduler   scheduler.Service
	publisher   *event.Publisher[event.Lifecycle]
	processor   *processor.Service
	planner     *migration.Planner
	executor    *migration.Executor
	locks       *locks
}

var _ migration.Applier = (*Runtime)(nil)

// Subscribe appends a lifecycle listener
func (r *Runtime) Subscribe(listener event.Listener[event.Lifecycle]) {
	r.publisher.Subscribe(listener)
}

// Deploy registers a process definition
func (r *Runtime) Deploy(ctx context.Context, definition *graph.Definition) error {
	if err := r.definitions.Save(ctx, definition); err != nil {
		return fmt.Errorf("failed to deploy definition: %w", err)
	}
	r.logger.Debug("definition deployed", ilog.DefinitionID(definition.ID))
	return nil
}

// DeployYAML decodes, validates and registers a YAML process definition
func (r *Runtime) DeployYAML(ctx context.Context, data []byte) (*graph.Definition, error) {
	ret, err := r.definitions.DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	if err = r.Deploy(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadDefinition loads and registers the definition stored at URL
func (r *Runtime) LoadDefinition(ctx context.Context, URL string) (*graph.Definition, error) {
	return r.definitions.Load(ctx, URL)
}

func (r *Runtime) loadDefinitions(ctx context.Context, baseURL string) error {
	if exists, _ := r.fs.Exists(ctx, baseURL); !exists {
		return nil
	}
	loaded, err := r.definitions.LoadAll(ctx, baseURL)
	if err != nil {
		return err
	}
	r.logger.Debug("definitions loaded", slog.String("location", baseURL), slog.Int("count", len(loaded)))
	return nil
}

// Definition returns a deployed definition
func (r *Runtime) Definition(ctx context.Context, id string) (*graph.Definition, error) {
	ret, err := r.definitions.Lookup(ctx, id)
	if errors.Is(err, dao.ErrNotFound) || errors.Is(err, dao.ErrInvalidID) {
		return nil, fmt.Errorf("%w: %q", ErrDefinitionNotFound, id)
	}
	return ret, err
}

// StartProcess starts an instance of a deployed definition; an empty
// processID is generated.
func (r *Runtime) StartProcess(ctx context.Context, definitionID, processID string, variables state.Parameters) (process *execution.Process, err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.start", tracing.KindInternal)
	span.WithAttributes(map[string]string{"definition.id": definitionID})
	defer func() { tracing.EndSpan(span, err) }()

	definition, err := r.Definition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	if processID == "" {
		processID = idgen.New()
	}
	release := r.locks.acquire(processID)
	defer release()
	if _, err = r.processes.Load(ctx, processID); err == nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessExists, processID)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return nil, fmt.Errorf("failed to check process %v: %w", processID, err)
	}
	if process, err = r.processor.Start(ctx, definition, processID, variables); err != nil {
		if process != nil {
			err = multierr.Append(err, r.restoreJobs(ctx, execution.New(processID, definition.ID), process))
		}
		return nil, err
	}
	process.Revision = 1
	if err = r.processes.Save(ctx, process); err != nil {
		err = fmt.Errorf("failed to save process %v: %w", processID, err)
		return nil, multierr.Append(err, r.restoreJobs(ctx, execution.New(processID, definition.ID), process))
	}
	r.logger.Info("process started", ilog.ProcessID(process.ID), ilog.DefinitionID(definition.ID))
	return process, nil
}

// Complete finishes the task an execution waits at and continues the flow
func (r *Runtime) Complete(ctx context.Context, processID, executionID string, variables state.Parameters) (process *execution.Process, err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.complete", tracing.KindInternal)
	span.WithAttributes(map[string]string{"process.id": processID, "execution.id": executionID})
	defer func() { tracing.EndSpan(span, err) }()
	return r.update(ctx, processID, func(inst *lifecycle.Instance) error {
		return r.processor.Complete(ctx, inst, executionID, variables)
	})
}

// Signal delivers a signal to every matching subscription of the process
func (r *Runtime) Signal(ctx context.Context, processID, name string) (int, error) {
	return r.correlate(ctx, processID, graph.EventSignal, name, r.processor.Signal)
}

// Message delivers a message to the first matching subscription of the process
func (r *Runtime) Message(ctx context.Context, processID, name string) (int, error) {
	return r.correlate(ctx, processID, graph.EventMessage, name, r.processor.Message)
}

func (r *Runtime) correlate(ctx context.Context, processID string, kind graph.EventKind, name string, deliver func(context.Context, *lifecycle.Instance, string) (int, error)) (triggered int, err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.trigger", tracing.KindConsumer)
	span.WithAttributes(map[string]string{"process.id": processID, "event.kind": string(kind), "event.ref": name})
	defer func() { tracing.EndSpan(span, err) }()
	_, err = r.update(ctx, processID, func(inst *lifecycle.Instance) error {
		count, err := deliver(ctx, inst, name)
		if err != nil {
			return err
		}
		if triggered = count; count == 0 {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return triggered, nil
}

// FireJob fires a timer job owned by the process
func (r *Runtime) FireJob(ctx context.Context, processID, jobID string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.trigger", tracing.KindConsumer)
	span.WithAttributes(map[string]string{"process.id": processID, "event.kind": string(graph.EventTimer), "job.id": jobID})
	defer func() { tracing.EndSpan(span, err) }()
	_, err = r.update(ctx, processID, func(inst *lifecycle.Instance) error {
		return r.processor.FireJob(ctx, inst, jobID)
	})
	return err
}

// dueSource is implemented by schedulers that can be polled
type dueSource interface {
	Due(now time.Time) []*execution.Job
}

// FireDue fires every job due at now, for hosts polling a pollable
// scheduler. Jobs the owning process no longer holds are skipped.
func (r *Runtime) FireDue(ctx context.Context, now time.Time) (int, error) {
	source, ok := r.scheduler.(dueSource)
	if !ok {
		return 0, fmt.Errorf("scheduler %T cannot be polled", r.scheduler)
	}
	fired := 0
	var err error
	for _, job := range source.Due(now) {
		fireErr := r.FireJob(ctx, job.ProcessID, job.ID)
		switch {
		case fireErr == nil:
			fired++
		case errors.Is(fireErr, ErrJobNotFound), errors.Is(fireErr, ErrProcessCompleted), errors.Is(fireErr, dao.ErrNotFound):
			r.logger.Debug("skipped stale job", ilog.ProcessID(job.ProcessID), slog.String("job", job.ID), ilog.Error(fireErr))
		default:
			err = multierr.Append(err, fireErr)
		}
	}
	return fired, err
}

// Process returns the stored process
func (r *Runtime) Process(ctx context.Context, processID string) (*execution.Process, error) {
	ret, err := r.processes.Load(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to load process %v: %w", processID, err)
	}
	return ret, nil
}

// Processes lists stored processes
func (r *Runtime) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	return r.processes.List(ctx, parameters...)
}

// NewMigration starts a migration request applied by this runtime
func (r *Runtime) NewMigration(processID string) *migration.Request {
	return migration.NewRequest(processID, r)
}

// Apply plans and executes a migration request as one unit
func (r *Runtime) Apply(ctx context.Context, request *migration.Request) (result *migration.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.migrate", tracing.KindInternal)
	span.WithAttributes(map[string]string{"process.id": request.ProcessID()}).WithInt("directives", len(request.Directives()))
	defer func() { tracing.EndSpan(span, err) }()
	if request.ProcessID() == "" {
		return nil, &migration.ValidationError{Directive: -1, Reason: "request has no process id"}
	}
	var before string
	process, err := r.update(ctx, request.ProcessID(), func(inst *lifecycle.Instance) error {
		before = inst.Process.Render()
		plan, err := r.planner.Plan(ctx, request, inst.Process, inst.Definition)
		if err != nil {
			return err
		}
		result, err = r.executor.Apply(ctx, inst, plan)
		return err
	})
	if err != nil {
		r.logger.Warn("migration failed", ilog.ProcessID(request.ProcessID()), ilog.Error(err))
		return nil, err
	}
	result.Revision = process.Revision
	r.logMigration(ctx, process, before, result)
	return result, nil
}

// Plan resolves a request against the current process without applying it
func (r *Runtime) Plan(ctx context.Context, request *migration.Request) (*migration.Plan, error) {
	release := r.locks.acquire(request.ProcessID())
	defer release()
	process, err := r.Process(ctx, request.ProcessID())
	if err != nil {
		return nil, err
	}
	definition, err := r.Definition(ctx, process.DefinitionID)
	if err != nil {
		return nil, err
	}
	return r.planner.Plan(ctx, request, process, definition)
}

// ApplyPlan executes a plan built by Plan. The process must not have been
// committed since the plan was built.
func (r *Runtime) ApplyPlan(ctx context.Context, plan *migration.Plan) (result *migration.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "shift.migrate", tracing.KindInternal)
	span.WithAttributes(map[string]string{"process.id": plan.ProcessID})
	defer func() { tracing.EndSpan(span, err) }()
	var before string
	process, err := r.update(ctx, plan.ProcessID, func(inst *lifecycle.Instance) error {
		if inst.Process.Revision != plan.Revision {
			return &migration.ConcurrentModificationError{ProcessID: plan.ProcessID, Step: "plan"}
		}
		before = inst.Process.Render()
		result, err = r.executor.Apply(ctx, inst, plan)
		return err
	})
	if err != nil {
		r.logger.Warn("migration failed", ilog.ProcessID(plan.ProcessID), ilog.Error(err))
		return nil, err
	}
	result.Revision = process.Revision
	r.logMigration(ctx, process, before, result)
	return result, nil
}

func (r *Runtime) logMigration(ctx context.Context, process *execution.Process, before string, result *migration.Result) {
	r.logger.Info("process migrated",
		ilog.ProcessID(process.ID),
		slog.Int("revision", process.Revision),
		slog.Int("cancelled", len(result.Cancelled)),
		slog.Int("created", len(result.Created)),
		slog.Int("registered", result.Registered))
	if !r.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(process.Render()),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	})
	if err != nil {
		return
	}
	r.logger.Debug("execution tree changed", ilog.ProcessID(process.ID), slog.String("diff", diff))
}

// update runs fn on a loaded copy of the process under its lock and saves
// the copy, with the next revision, only when fn succeeds
func (r *Runtime) update(ctx context.Context, processID string, fn func(inst *lifecycle.Instance) error) (*execution.Process, error) {
	release := r.locks.acquire(processID)
	defer release()
	process, err := r.Process(ctx, processID)
	if err != nil {
		return nil, err
	}
	definition, err := r.Definition(ctx, process.DefinitionID)
	if err != nil {
		return nil, err
	}
	stored := process.Clone()
	if err = fn(&lifecycle.Instance{Process: process, Definition: definition}); err != nil {
		if errors.Is(err, errUnchanged) {
			return process, nil
		}
		return nil, multierr.Append(err, r.restoreJobs(ctx, stored, process))
	}
	process.Revision++
	process.UpdatedAt = clock.Now()
	if err = r.processes.Save(ctx, process); err != nil {
		err = fmt.Errorf("failed to save process %v: %w", processID, err)
		return nil, multierr.Append(err, r.restoreJobs(ctx, stored, process))
	}
	return process, nil
}

// restoreJobs brings the scheduler back in line with the stored process after
// a discarded attempt: jobs the attempt scheduled are removed and stored jobs
// it cancelled or fired are reinstated
func (r *Runtime) restoreJobs(ctx context.Context, stored, attempt *execution.Process) error {
	ctx = context.WithoutCancel(ctx)
	var err error
	for _, job := range attempt.Jobs {
		if stored.Job(job.ID) != nil {
			continue
		}
		if removeErr := r.scheduler.Remove(ctx, job.ID); removeErr != nil {
			err = multierr.Append(err, &scheduler.Error{Op: "remove", ExecutionID: job.ExecutionID, ActivityID: job.ActivityID, Err: removeErr})
		}
	}
	for _, job := range stored.Jobs {
		if restoreErr := r.scheduler.Restore(ctx, job); restoreErr != nil {
			err = multierr.Append(err, &scheduler.Error{Op: "restore", ExecutionID: job.ExecutionID, ActivityID: job.ActivityID, Err: restoreErr})
		}
	}
	if err != nil {
		r.logger.Error("scheduler out of sync with stored process", ilog.ProcessID(stored.ID), ilog.Error(err))
	}
	return err
}
