package agent

import (
	"context"
	"sync"
)

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// SessionRegistry tracks the at-most-one active run per session id. Starting
// over a running session interrupts the old run and waits for it to
// deregister before the new one takes the slot.
type SessionRegistry struct {
	mu   sync.Mutex
	runs map[string]*activeRun
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{runs: make(map[string]*activeRun)}
}

// Start registers a run for the session and returns a context bound to it
// plus a finish func. finish must be called exactly once on every
// termination path; it is safe against double calls.
func (r *SessionRegistry) Start(ctx context.Context, sessionID string) (context.Context, func()) {
	for {
		r.mu.Lock()
		prev, ok := r.runs[sessionID]
		if !ok {
			runCtx, cancel := context.WithCancel(ctx)
			run := &activeRun{cancel: cancel, done: make(chan struct{})}
			r.runs[sessionID] = run

			var once sync.Once
			finish := func() {
				once.Do(func() {
					cancel()
					r.mu.Lock()
					if r.runs[sessionID] == run {
						delete(r.runs, sessionID)
					}
					r.mu.Unlock()
					close(run.done)
				})
			}
			r.mu.Unlock()
			return runCtx, finish
		}
		// Last writer wins: cancel the current run and wait for it to
		// release the slot outside the lock.
		prev.cancel()
		r.mu.Unlock()
		<-prev.done
	}
}

// Interrupt cancels the session's active run. No run, no effect.
func (r *SessionRegistry) Interrupt(sessionID string) {
	r.mu.Lock()
	run, ok := r.runs[sessionID]
	r.mu.Unlock()
	if ok {
		run.cancel()
	}
}

// Active reports whether the session currently has a registered run.
func (r *SessionRegistry) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[sessionID]
	return ok
}
