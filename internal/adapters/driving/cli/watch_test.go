package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catsync/internal/logger"
)

func TestWatch_RefreshesAndReportsChanges(t *testing.T) {
	s, engine := newTestServices()
	watched := make(chan struct{})
	s.WatchLocal = func(ctx context.Context) error {
		close(watched)
		<-ctx.Done()
		return ctx.Err()
	}
	t.Cleanup(func() { logger.SetTimestamps(false) })

	out, err := execute(t, s, "watch")

	require.NoError(t, err)
	<-watched
	assert.Contains(t, out, "Watching catalog.")
	assert.Contains(t, out, "3 items (2 local, 0 with updates available)")
	assert.False(t, engine.IsCatalogRefreshing())
	assert.Equal(t, 1, s.Scheduler.(*mockScheduler).started)
}

func TestWatch_RequiresScheduler(t *testing.T) {
	s, _ := newTestServices()
	s.Scheduler = nil

	_, err := execute(t, s, "watch")

	assert.EqualError(t, err, "scheduler not configured")
}

type failingScheduler struct{ err error }

func (f failingScheduler) Start(context.Context) error { return f.err }
func (f failingScheduler) Stop() error                 { return nil }

func TestWatch_SchedulerError(t *testing.T) {
	s, _ := newTestServices()
	s.Scheduler = failingScheduler{err: errors.New("tick loop died")}

	_, err := execute(t, s, "watch")
	assert.EqualError(t, err, "tick loop died")

	s.Scheduler = failingScheduler{err: context.Canceled}
	_, err = execute(t, s, "watch")
	assert.NoError(t, err)
}

func TestStartScheduler_StopWaits(t *testing.T) {
	s, _ := newTestServices()
	sched := s.Scheduler.(*mockScheduler)

	stop := startScheduler(context.Background(), s)
	stop()

	assert.Equal(t, 1, sched.started)
	assert.Equal(t, 1, sched.stopped)
}

func TestStartLocalWatcher_NilIsNoop(t *testing.T) {
	s, _ := newTestServices()

	stop := startLocalWatcher(context.Background(), s)
	stop()
}
