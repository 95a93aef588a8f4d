package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/shift/internal/clock"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	defer clock.Freeze(now)()
	srv := New()

	late, err := srv.ScheduleTimer(ctx, "p1", "e1", "boundaryTimer", "PT10M")
	require.NoError(t, err)
	early, err := srv.ScheduleTimer(ctx, "p1", "e2", "catchTimer", "PT1M")
	require.NoError(t, err)
	sibling, err := srv.ScheduleTimer(ctx, "p1", "e1", "otherTimer", "PT5M")
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), late.DueAt)
	assert.Equal(t, 3, srv.Len())
	assert.Equal(t, early.ID, srv.Next().ID)

	_, err = srv.ScheduleTimer(ctx, "p1", "e3", "broken", "soon")
	assert.Error(t, err)

	cancelled, err := srv.CancelJobsForExecution(ctx, "e1")
	require.NoError(t, err)
	var ids []string
	for _, job := range cancelled {
		ids = append(ids, job.ID)
	}
	assert.ElementsMatch(t, []string{late.ID, sibling.ID}, ids)
	assert.Equal(t, 1, srv.Len())

	cancelled, err = srv.CancelJobsForExecution(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, cancelled)

	assert.Empty(t, srv.Due(now))
	due := srv.Due(now.Add(time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, 0, srv.Len())
	assert.Nil(t, srv.Next())
}

func TestService_DueOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	defer clock.Freeze(now)()
	srv := New()
	var expected []string
	for _, spec := range []string{"PT3S", "PT1S", "PT2S"} {
		job, err := srv.ScheduleTimer(ctx, "p1", "e-"+spec, "t", spec)
		require.NoError(t, err)
		expected = append(expected, job.ID)
	}
	require.NoError(t, srv.Remove(ctx, expected[2]))
	require.NoError(t, srv.Remove(ctx, "unknown"))
	due := srv.Due(now.Add(time.Hour))
	require.Len(t, due, 2)
	assert.Equal(t, expected[1], due[0].ID)
	assert.Equal(t, expected[0], due[1].ID)

	cancelled, stop := context.WithCancel(ctx)
	stop()
	_, err := srv.ScheduleTimer(cancelled, "p1", "e", "t", "PT1S")
	assert.Error(t, err)
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	defer clock.Freeze(now)()
	srv := New()

	job, err := srv.ScheduleTimer(ctx, "p1", "e1", "boundaryTimer", "PT5M")
	require.NoError(t, err)
	_, err = srv.CancelJobsForExecution(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 0, srv.Len())

	require.NoError(t, srv.Restore(ctx, job))
	require.NoError(t, srv.Restore(ctx, job))
	assert.Equal(t, 1, srv.Len())
	assert.Equal(t, job.ID, srv.Next().ID)
	assert.Equal(t, job.DueAt, srv.Next().DueAt)

	cancelled, err := srv.CancelJobsForExecution(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, job.ID, cancelled[0].ID)

	assert.Error(t, srv.Restore(ctx, nil))
}
