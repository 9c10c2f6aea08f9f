package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunner_BoundsUnitsPerSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := NewRunner(1, NewNopLogger())

	var active, maxActive int32
	unit := func(ctx context.Context) {
		cur := atomic.AddInt32(&active, 1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, r.Go(ctx, "session-a", unit))
		}()
	}
	wg.Wait()
	r.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive), "limit 1 serializes a session's units")
}

func TestRunner_SessionsAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := NewRunner(1, NewNopLogger())

	both := make(chan struct{})
	var arrived int32
	unit := func(ctx context.Context) {
		if atomic.AddInt32(&arrived, 1) == 2 {
			close(both)
		}
		<-both
	}

	ctx := context.Background()
	require.NoError(t, r.Go(ctx, "session-a", unit))
	require.NoError(t, r.Go(ctx, "session-b", unit))

	select {
	case <-both:
	case <-time.After(2 * time.Second):
		t.Fatal("units from different sessions did not run concurrently")
	}
	r.Wait()
}

func TestRunner_SpawnRespectsContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := NewRunner(1, NewNopLogger())

	release := make(chan struct{})
	require.NoError(t, r.Go(context.Background(), "session-a", func(ctx context.Context) {
		<-release
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Go(ctx, "session-a", func(ctx context.Context) {})
	assert.Error(t, err, "acquire gives up when the spawning context ends")

	close(release)
	r.Wait()
}

func TestRunner_UnitOutlivesSpawningContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := NewRunner(2, NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	require.NoError(t, r.Go(ctx, "session-a", func(ctx context.Context) {
		// Cancellation of the spawning request must not reach the unit.
		time.Sleep(20 * time.Millisecond)
		done <- ctx.Err()
	}))
	cancel()

	assert.NoError(t, <-done)
	r.Wait()
}
