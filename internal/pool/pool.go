// Package pool is the bounded worker pool that fans out per-target registry
// operations. Each worker owns an independent *aur.Session (its own HTTP session and
// circuit breaker) and shared-nothing parser state, draining the shared WorkList and
// feeding partial results back for internal/aggregate to join.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cower-go/cower/internal/aur"
	"github.com/cower-go/cower/internal/logging"
)

// SessionFactory builds one *aur.Session per worker; each worker owns its session for
// its entire lifetime.
type SessionFactory func() *aur.Session

// TaskFunc is the unit of work a worker runs after popping a target off the WorkList.
// internal/task implements the three variants (query/update/download) behind this
// signature; the download variant is the one that calls wl.Append to enqueue newly
// discovered dependencies. An error return is a per-target failure: Run logs it via
// logger.Fail and moves on to the next target rather than aborting the pool.
type TaskFunc func(ctx context.Context, sess *aur.Session, wl *WorkList, target string) ([]*aur.PackageRecord, error)

// Run starts a fixed set of workers goroutines, each with its own session from
// newSession, each looping task over whatever WorkList.Pop hands it until the pool is
// quiescent. Per-worker partial results are joined under a single mutex; the combined
// list is returned only after every worker has exited.
func Run(ctx context.Context, wl *WorkList, workers int, newSession SessionFactory, task TaskFunc, logger *logging.Logger) []*aur.PackageRecord {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var all []*aur.PackageRecord

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			sess := newSession()
			var partial []*aur.PackageRecord

			for {
				target, ok := wl.Pop()
				if !ok {
					break
				}
				records, err := task(ctx, sess, wl, target)
				if err != nil {
					logger.Fail(target, err)
					continue
				}
				partial = append(partial, records...)
			}

			mu.Lock()
			all = append(all, partial...)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return a non-nil error (per-target failures are logged and
	// skipped above), so g.Wait() always returns nil.
	_ = g.Wait()
	return all
}
