package thread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/hds/service/unit"
)

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	srv := New(WithConfig(Config{Interval: time.Millisecond}))

	pid, err := srv.Spawn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{pid}, srv.Live(ctx))

	time.Sleep(10 * time.Millisecond)
	work, err := srv.Work(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 0, work, "spawned unit must stay suspended")

	require.NoError(t, srv.Resume(ctx, pid))
	assert.Eventually(t, func() bool {
		work, _ := srv.Work(ctx, pid)
		return work > 0
	}, time.Second, time.Millisecond)
	require.NoError(t, srv.Suspend(ctx, pid))

	suspended, _ := srv.Work(ctx, pid)
	time.Sleep(10 * time.Millisecond)
	preserved, _ := srv.Work(ctx, pid)
	assert.Equal(t, suspended, preserved)

	require.NoError(t, srv.Resume(ctx, pid))
	assert.Eventually(t, func() bool {
		work, _ := srv.Work(ctx, pid)
		return work > preserved
	}, time.Second, time.Millisecond)

	require.NoError(t, srv.Terminate(ctx, pid))
	assert.Empty(t, srv.Live(ctx))
	assert.True(t, errors.Is(srv.Resume(ctx, pid), unit.ErrNotFound))
	assert.True(t, errors.Is(srv.Terminate(ctx, pid), unit.ErrNotFound))
}

func TestTerminateAll(t *testing.T) {
	ctx := context.Background()
	srv := New()
	for i := 1; i <= 3; i++ {
		pid, err := srv.Spawn(ctx, i)
		require.NoError(t, err)
		assert.Equal(t, i, pid)
	}
	require.NoError(t, srv.Resume(ctx, 2))
	require.NoError(t, unit.TerminateAll(ctx, srv))
	assert.Empty(t, srv.Live(ctx))
}

func TestService_CanceledContext(t *testing.T) {
	srv := New()
	pid, err := srv.Spawn(context.Background(), 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = srv.Resume(ctx, pid)
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}
	require.NoError(t, srv.Terminate(context.Background(), pid))
}

func TestService_Terminate_CanceledContext(t *testing.T) {
	ctx := context.Background()
	srv := New()
	pid, err := srv.Spawn(ctx, 1)
	require.NoError(t, err)
	w, err := srv.lookup(ctx, pid)
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err = srv.Terminate(canceled, pid); err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, []int{pid}, srv.Live(ctx), "unacknowledged unit stays registered")
	}

	require.NoError(t, unit.TerminateAll(ctx, srv))
	assert.Empty(t, srv.Live(ctx))
	select {
	case <-w.done:
	case <-time.After(time.Second):
		assert.Fail(t, "worker goroutine still running")
	}
}
