package core

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Runner is a supervised pool for orchestration units, keyed by session id.
// Each session gets a weighted semaphore bounding its concurrent units;
// spawning blocks once the bound is reached, which gives the transport
// layer natural backpressure. Units are never cancelled once started.
type Runner struct {
	log   Logger
	limit int64

	mu       sync.Mutex
	sessions map[string]*semaphore.Weighted
	wg       sync.WaitGroup
}

// NewRunner creates a Runner allowing up to limit concurrent units per session.
func NewRunner(limit int64, log Logger) *Runner {
	if limit <= 0 {
		limit = 1
	}
	return &Runner{
		log:      log,
		limit:    limit,
		sessions: make(map[string]*semaphore.Weighted),
	}
}

// Go spawns unit as an independent background task for the session. It
// blocks while the session is at its concurrency bound and returns an error
// only if ctx is done before a slot frees up.
func (r *Runner) Go(ctx context.Context, sessionID string, unit func(ctx context.Context)) error {
	sem := r.session(sessionID)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer sem.Release(1)
		// Detach from the spawning request's lifetime: a unit runs to its
		// terminal state even if the originating connection goes away.
		unit(context.WithoutCancel(ctx))
	}()
	return nil
}

// Wait blocks until all in-flight units have reached their terminal state.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) session(sessionID string) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	sem, ok := r.sessions[sessionID]
	if !ok {
		sem = semaphore.NewWeighted(r.limit)
		r.sessions[sessionID] = sem
	}
	return sem
}
