// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Identifiers for processes, executions, subscriptions and jobs are opaque
// strings; callers must not rely on their format.
package idgen
