// Package parallel provides a bounded-concurrency mapper: apply a function
// to every element of a slice with at most N calls in flight, collecting
// results in input order and reporting progress in completion order.
package parallel

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called once per completed item, successful or not.
// done is the number of items finished so far, total the batch size.
// Calls are serialized; implementations need no locking.
type ProgressFunc func(done, total int)

// Map applies fn to every item with at most limit calls in flight and
// returns the outputs in input order. The first error is returned after
// all in-flight calls finish; items not yet started when an error occurs
// are skipped. There are no retries.
func Map[I, O any](ctx context.Context, items []I, limit int, fn func(context.Context, I) (O, error), progress ProgressFunc) ([]O, error) {
	results := make([]O, len(items))
	if _, err := run(ctx, items, limit, fn, progress, results, true); err != nil {
		return nil, err
	}
	return results, nil
}

// MapSettle is Map with a per-item failure policy: every item runs to
// completion and failures are reported positionally instead of aborting
// the batch. errs[i] is nil when results[i] is valid.
func MapSettle[I, O any](ctx context.Context, items []I, limit int, fn func(context.Context, I) (O, error), progress ProgressFunc) ([]O, []error) {
	results := make([]O, len(items))
	errs, _ := run(ctx, items, limit, fn, progress, results, false)
	return results, errs
}

func run[I, O any](ctx context.Context, items []I, limit int, fn func(context.Context, I) (O, error), progress ProgressFunc, results []O, failFast bool) ([]error, error) {
	if limit <= 0 {
		limit = 1
	}
	errs := make([]error, len(items))

	var done atomic.Int64
	var progressMu sync.Mutex
	report := func() {
		if progress == nil {
			done.Add(1)
			return
		}
		// Increment under the lock so callbacks see a monotone count.
		progressMu.Lock()
		progress(int(done.Add(1)), len(items))
		progressMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if failFast && gctx.Err() != nil {
				// A sibling already failed; skip unstarted work.
				errs[i] = gctx.Err()
				return nil
			}
			out, err := fn(gctx, item)
			results[i] = out
			errs[i] = err
			report()
			if failFast {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errs, err
	}
	return errs, nil
}
