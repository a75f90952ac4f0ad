package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/hds/model/job"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/progress"
	"github.com/viant/hds/service/memory"
	qmemory "github.com/viant/hds/service/messaging/memory"
	"github.com/viant/hds/service/queue"
	"github.com/viant/hds/service/resource"
	"github.com/viant/hds/service/slot"
)

type fixture struct {
	next   *slot.Slot
	active *slot.Slot
	output *qmemory.Queue[Snapshot]
	srv    *Service
}

func newFixture(t *testing.T, options ...Option) *fixture {
	pool, err := resource.New(job.Limits{Memory: 1024, Printer: 2, Scanner: 1}, 64, nil)
	require.NoError(t, err)
	ret := &fixture{
		next:   slot.New("next"),
		active: slot.New("active"),
		output: qmemory.NewQueue[Snapshot](qmemory.DefaultConfig()),
	}
	options = append([]Option{WithOutput(ret.output)}, options...)
	ret.srv, err = New(pool, ret.next, ret.active, options...)
	require.NoError(t, err)
	return ret
}

func TestService_Report(t *testing.T) {
	f := newFixture(t)
	f.active.Install(&process.Entry{Seq: 3, PID: 12, Priority: 1, CPUTime: 4, MemoryReq: 100, Block: 2})

	expect := []string{
		"memory: max 1,024, available 960, realtime reserve 64",
		"printer: max 2, available 2",
		"scanner: max 1, available 1",
		"active: job #3 pid=12 priority=1 cpu=4 memory=100 printer=0 scanner=0 block=2 arrival=-",
		"next: none",
		"snapshots: pending 0, dropped 0",
	}
	assert.Equal(t, expect, f.srv.Report())
}

func TestService_Report_DroppedSnapshots(t *testing.T) {
	ctx := context.Background()
	pool, err := resource.New(job.Limits{Memory: 1024, Printer: 2, Scanner: 1}, 64, nil)
	require.NoError(t, err)
	output := qmemory.NewQueue[Snapshot](qmemory.Config{QueueBuffer: 1, DropOldest: true})
	srv, err := New(pool, slot.New("next"), slot.New("active"), WithOutput(output))
	require.NoError(t, err)
	_, err = srv.Execute(ctx, CommandPrintStats)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, srv.Emit(ctx))
	}
	lines := srv.Report()
	assert.Equal(t, "snapshots: pending 1, dropped 2", lines[len(lines)-1])
}

func TestService_Report_Extended(t *testing.T) {
	allocator, err := memory.New(1024, 64)
	require.NoError(t, err)
	queues := queue.NewSet(nil)
	queues.High.Enqueue(&process.Entry{ID: "a"})
	tracker := &progress.Progress{}
	tracker.Update(progress.Delta{Dispatched: 2, Completed: 1})

	f := newFixture(t, WithQueues(queues), WithAllocator(allocator), WithProgress(tracker))
	lines := f.srv.Report()
	require.Len(t, lines, 9)
	assert.Equal(t, "queues: rtq=0 p1=1 p2=0 p3=0 user=0", lines[5])
	assert.Equal(t, "free pool: 960 units [64-1023], blocks 0, retired 0", lines[6])
	assert.Equal(t, "jobs: dispatched 2, scheduled 0, preempted 0, demoted 0, completed 1, failed 0, dropped 0", lines[7])
}

func TestService_Execute(t *testing.T) {
	jobs := []*job.Descriptor{
		{Seq: 1, Priority: 0, CPUReq: 2, MemoryReq: 5},
		{Seq: 2, Priority: 1, CPUReq: 3, MemoryReq: 10, PrinterReq: 1},
	}
	testCases := []struct {
		description string
		jobs        []*job.Descriptor
		command     string
		expect      []string
		wantErr     bool
	}{
		{
			description: "print job list",
			jobs:        jobs,
			command:     "print_dl",
			expect: []string{
				"job #1: priority=0 cpu=2 memory=5 printer=0 scanner=0",
				"job #2: priority=1 cpu=3 memory=10 printer=1 scanner=0",
			},
		},
		{description: "empty job list", command: "print_dl\n", expect: []string{"job list is empty"}},
		{description: "toggle stats", command: "print_stats", expect: []string{"stats emission enabled"}},
		{description: "unknown command", command: "format c:", wantErr: true},
		{description: "empty command", command: "", wantErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t, WithJobs(testCase.jobs))
			actual, err := f.srv.Execute(context.Background(), testCase.command)
			if testCase.wantErr {
				assert.True(t, errors.Is(err, ErrUnrecognizedCommand))
				assert.Contains(t, err.Error(), "unrecognized command")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expect, actual)
		})
	}
}

func TestService_Emit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.False(t, f.srv.Emit(ctx))

	_, err := f.srv.Execute(ctx, CommandPrintStats)
	require.NoError(t, err)
	assert.True(t, f.srv.Emitting())
	assert.True(t, f.srv.Emit(ctx))
	message, err := f.output.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.srv.Report(), message.T().Lines)

	lines, err := f.srv.Execute(ctx, CommandPrintStats)
	require.NoError(t, err)
	assert.Equal(t, []string{"stats emission disabled"}, lines)
	assert.False(t, f.srv.Emit(ctx))
}

func TestService_Start(t *testing.T) {
	f := newFixture(t, WithConfig(Config{Tick: time.Millisecond}))
	_, err := f.srv.Execute(context.Background(), CommandPrintStats)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- f.srv.Start(context.Background()) }()
	assert.Eventually(t, func() bool { return f.output.Size() >= 2 }, time.Second, time.Millisecond)
	f.srv.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}
