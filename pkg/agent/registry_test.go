package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartFinish(t *testing.T) {
	r := NewSessionRegistry()

	ctx, finish := r.Start(context.Background(), "s1")
	assert.True(t, r.Active("s1"))
	assert.NoError(t, ctx.Err())

	finish()
	assert.False(t, r.Active("s1"))

	// finish is safe against double calls
	finish()
}

func TestRegistryInterruptNoRunIsNoop(t *testing.T) {
	r := NewSessionRegistry()
	r.Interrupt("missing")
	assert.False(t, r.Active("missing"))
}

func TestRegistryInterruptCancelsRun(t *testing.T) {
	r := NewSessionRegistry()
	ctx, finish := r.Start(context.Background(), "s1")
	defer finish()

	r.Interrupt("s1")
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context not cancelled")
	}
}

func TestRegistryStartPreemptsRunningSession(t *testing.T) {
	r := NewSessionRegistry()
	first, finishFirst := r.Start(context.Background(), "s1")

	// Simulate the first run reacting to cancellation.
	go func() {
		<-first.Done()
		finishFirst()
	}()

	second, finishSecond := r.Start(context.Background(), "s1")
	defer finishSecond()

	assert.Error(t, first.Err())
	assert.NoError(t, second.Err())
	assert.True(t, r.Active("s1"))
}

func TestRegistryConcurrentStartsSingleSurvivor(t *testing.T) {
	r := NewSessionRegistry()
	const n = 8

	var mu sync.Mutex
	var ctxs []context.Context
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, finish := r.Start(context.Background(), "s1")
			go func() {
				<-ctx.Done()
				finish()
			}()
			mu.Lock()
			ctxs = append(ctxs, ctx)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Exactly one run may still be live; every other context is cancelled.
	time.Sleep(20 * time.Millisecond)
	live := 0
	for _, ctx := range ctxs {
		if ctx.Err() == nil {
			live++
		}
	}
	require.LessOrEqual(t, live, 1)

	// Distinct ids never contend.
	_, finishA := r.Start(context.Background(), "a")
	_, finishB := r.Start(context.Background(), "b")
	assert.True(t, r.Active("a"))
	assert.True(t, r.Active("b"))
	finishA()
	finishB()
}
