package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqClock_Monotonic(t *testing.T) {
	clock := NewSeqClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestSeqClock_Reset(t *testing.T) {
	clock := NewSeqClock()
	clock.Next()
	clock.Next()
	clock.Reset()
	assert.Equal(t, int64(1), clock.Next())
}

func TestSeqClock_Concurrent(t *testing.T) {
	clock := NewSeqClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), clock.Current())
}
