// Package shift runs long-lived, scope-nested process instances and migrates
// running instances between activities.
//
// The engine keeps every instance as an aggregate (execution tree,
// variables, event subscriptions and timer jobs) in a pluggable store and
// serialises all operations on one instance. End-users typically interact
// with the engine via the Runtime exposed by the root package:
//
//	srv := shift.New()
//	rt := srv.Runtime()
//	_ = rt.Deploy(ctx, definition)
//	process, _ := rt.StartProcess(ctx, definition.ID, "", nil)
//	result, err := rt.NewMigration(process.ID).
//		MoveActivityToActivity("secondTask", "firstTask").
//		Apply(ctx)
//
// Migration requests are immutable values; every builder call returns an
// updated copy and Apply plans and executes the request as one unit.
package shift
