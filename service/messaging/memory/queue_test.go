package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID    string
	Lines []string
}

func TestQueue(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx := context.Background()
	payload := testPayload{ID: "snapshot-1", Lines: []string{"max memory: 1,024"}}

	require.NoError(t, queue.Publish(ctx, &payload))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, payload, *message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(nil))
}

func TestQueue_Nack(t *testing.T) {
	queue := NewQueue[testPayload](Config{MaxRetries: 1, QueueBuffer: 2})
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &testPayload{ID: "a"}))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(errors.New("ui busy")))
	assert.Equal(t, 1, queue.Size())

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", message.T().ID)
	require.NoError(t, message.Nack(errors.New("ui busy")))
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.Dropped())
}

func TestQueue_DropOldest(t *testing.T) {
	testCases := []struct {
		description string
		published   int
		buffer      int
		expectFirst string
		dropped     int
	}{
		{description: "within capacity", published: 2, buffer: 3, expectFirst: "m0"},
		{description: "overflow evicts oldest", published: 5, buffer: 3, expectFirst: "m2", dropped: 2},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			queue := NewQueue[testPayload](Config{QueueBuffer: testCase.buffer, DropOldest: true})
			for i := 0; i < testCase.published; i++ {
				require.NoError(t, queue.Publish(ctx, &testPayload{ID: fmt.Sprintf("m%d", i)}))
			}
			message, err := queue.Consume(ctx)
			require.NoError(t, err)
			assert.Equal(t, testCase.expectFirst, message.T().ID)
			assert.Equal(t, testCase.dropped, queue.Dropped())
		})
	}
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[testPayload](Config{QueueBuffer: 10})
	ctx := context.Background()
	producers, perProducer := 5, 20

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &testPayload{ID: fmt.Sprintf("p%d-%d", producer, j)}))
			}
		}(i)
	}

	consumed := 0
	timeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for consumed < producers*perProducer {
		message, err := queue.Consume(timeout)
		require.NoError(t, err)
		assert.NoError(t, message.Ack())
		consumed++
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &testPayload{ID: "x"}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.Error(t, err)
}
