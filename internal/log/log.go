// Package log holds slog attribute helpers shared by the engine packages.
package log

import "log/slog"

// ProcessID returns the process instance attribute
func ProcessID(id string) slog.Attr {
	return slog.String("process_id", id)
}

// ExecutionID returns the execution attribute
func ExecutionID(id string) slog.Attr {
	return slog.String("execution_id", id)
}

// ActivityID returns the activity attribute
func ActivityID(id string) slog.Attr {
	return slog.String("activity_id", id)
}

// DefinitionID returns the process definition attribute
func DefinitionID(id string) slog.Attr {
	return slog.String("definition_id", id)
}

// Error returns an error attribute; a nil error yields an empty message
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Level parses a textual level, defaulting to info
func Level(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
