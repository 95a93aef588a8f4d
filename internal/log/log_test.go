package log

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	testCases := []struct {
		name        string
		attr        slog.Attr
		expectedKey string
		expected    string
	}{
		{name: "process", attr: ProcessID("p1"), expectedKey: "process_id", expected: "p1"},
		{name: "execution", attr: ExecutionID("e1"), expectedKey: "execution_id", expected: "e1"},
		{name: "activity", attr: ActivityID("task"), expectedKey: "activity_id", expected: "task"},
		{name: "definition", attr: DefinitionID("d1"), expectedKey: "definition_id", expected: "d1"},
		{name: "error", attr: Error(errors.New("boom")), expectedKey: "error", expected: "boom"},
		{name: "nil error", attr: Error(nil), expectedKey: "error", expected: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedKey, tc.attr.Key)
			assert.Equal(t, tc.expected, tc.attr.Value.String())
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level("debug"))
	assert.Equal(t, slog.LevelWarn, Level("WARN"))
	assert.Equal(t, slog.LevelInfo, Level("bogus"))
}
