package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSteppingClock_FirstReadIsStart(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewSteppingClock(start, time.Second)
	assert.Equal(t, start, clock.Now())
}

func TestSteppingClock_AdvancesByStep(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewSteppingClock(start, 2*time.Second)

	clock.Now()
	assert.Equal(t, start.Add(2*time.Second), clock.Now())
	assert.Equal(t, start.Add(4*time.Second), clock.Now())
	assert.Equal(t, 3, clock.Reads())
}

func TestSteppingClock_ThreadSafe(t *testing.T) {
	clock := NewSteppingClock(time.Unix(0, 0), time.Millisecond)
	const goroutines = 50
	const reads = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < reads; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*reads, clock.Reads())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("run")
	assert.Equal(t, "run-0001", ids.Next())
	assert.Equal(t, "run-0002", ids.Next())

	assert.Equal(t, "id-0001", NewSequentialIDs("").Next())
}
