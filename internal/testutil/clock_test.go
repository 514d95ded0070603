package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	clock := NewFakeClock()
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, time.Duration(0), clock.Elapsed())
}

func TestFakeClock_Advance(t *testing.T) {
	clock := NewFakeClock()

	clock.Advance(250 * time.Millisecond)
	clock.Advance(750 * time.Millisecond)

	assert.Equal(t, time.Second, clock.Elapsed())
}

func TestFakeClock_AfterAdvancesAndFires(t *testing.T) {
	clock := NewFakeClock()

	select {
	case fired := <-clock.After(10 * time.Millisecond):
		assert.Equal(t, Epoch.Add(10*time.Millisecond), fired)
	default:
		t.Fatal("After should return a fired channel")
	}

	clock.After(100 * time.Millisecond)
	assert.Equal(t, 110*time.Millisecond, clock.Elapsed())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 100 * time.Millisecond}, clock.Sleeps())
}

func TestFakeClock_Reset(t *testing.T) {
	clock := NewFakeClock()
	clock.After(time.Second)

	clock.Reset()

	assert.Equal(t, Epoch, clock.Now())
	assert.Empty(t, clock.Sleeps())
}

func TestFakeClock_ThreadSafe(t *testing.T) {
	clock := NewFakeClock()
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*time.Millisecond, clock.Elapsed())
}

func TestFixedSessionGenerator(t *testing.T) {
	gen := NewFixedSessionGenerator("session-1")
	assert.Equal(t, "session-1", gen.Generate())
	assert.Equal(t, "session-1", gen.Generate())

	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())
}
