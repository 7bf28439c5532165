package engine

import (
	"context"
	"sync"
)

// partition splits items into n contiguous slices of len(items)/n; the
// remainder goes to the last slice. n <= 0 is treated as 1.
func partition[T any](items []T, n int) [][]T {
	if n <= 0 {
		n = 1
	}
	size := len(items) / n
	parts := make([][]T, n)
	for i := 0; i < n; i++ {
		lo := i * size
		hi := lo + size
		if i == n-1 {
			hi = len(items)
		}
		parts[i] = items[lo:hi]
	}
	return parts
}

// slicePool runs one goroutine per slice. Each worker walks its own slice
// sequentially; there is no shared queue and no work stealing.
type slicePool[T any] struct {
	parts   [][]T
	process func(ctx context.Context, worker int, t T)
	wg      sync.WaitGroup
}

func newSlicePool[T any](parts [][]T, fn func(context.Context, int, T)) *slicePool[T] {
	return &slicePool[T]{parts: parts, process: fn}
}

// Run starts every worker and blocks until all of them return. A cancelled
// ctx stops each worker before its next item.
func (p *slicePool[T]) Run(ctx context.Context) {
	for i, part := range p.parts {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for _, t := range part {
				if ctx.Err() != nil {
					return
				}
				p.process(ctx, i, t)
			}
		}()
	}
	p.wg.Wait()
}
