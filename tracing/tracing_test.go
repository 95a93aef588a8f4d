package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "span.txt")
	require.NoError(t, Init("shift", "0.0.1", fileName))

	ctx, parent := StartSpan(context.Background(), "shift.migrate", KindInternal)
	_, child := StartSpan(ctx, "shift.plan", KindInternal)
	child.WithAttributes(map[string]string{"process.id": "p1"}).WithInt("directives", 2)
	EndSpan(child, nil)
	EndSpan(parent, assert.AnError)

	current, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, current)
	_, ok = SpanFromContext(context.Background())
	assert.False(t, ok)

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shift.plan")
	assert.Contains(t, string(data), "parent.span_id")
}
