package srm

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

func resolveWorkers(workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return workers
}

// ParallelFor executes fn over contiguous chunks of [0, n) on up to workers
// goroutines. It returns the first error reported by a chunk or by ctx.
func ParallelFor(ctx context.Context, n, minChunk, workers int, fn func(start, end int) error) error {
	workers = resolveWorkers(workers)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(0, n)
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(s, e)
		})
	}
	return g.Wait()
}
