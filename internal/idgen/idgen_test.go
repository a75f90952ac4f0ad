package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestSequence_Next(t *testing.T) {
	seq := &Sequence{}
	assert.Equal(t, 1, seq.Next())
	assert.Equal(t, 2, seq.Next())

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, loaded := seen.LoadOrStore(seq.Next(), true)
			assert.False(t, loaded)
		}()
	}
	wg.Wait()
	assert.Equal(t, 53, seq.Next())
}
