// internal/distance/estimate.go
package distance

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Estimate fills an N×N matrix by calling dist for every unordered pair.
// Rows are handed to a fixed worker pool; each worker owns whole rows, so
// every condensed cell has exactly one writer. dist must be pure and
// side-effect free. onRow (optional) is invoked once per completed row for
// progress reporting.
//
// Cancellation is honored between rows: a worker finishes its current row
// and stops taking new ones.
func Estimate(ctx context.Context, n, threads int, dist func(i, j int) float64, onRow func()) (*Matrix, error) {
	m := NewMatrix(n)
	if err := estimateRows(ctx, m, 1, threads, dist, onRow); err != nil {
		return nil, err
	}
	return m, nil
}

// Extend grows an existing matrix to n files, keeping every old cell and
// computing only the rows of the newly appended files.
func Extend(ctx context.Context, old *Matrix, n, threads int, dist func(i, j int) float64, onRow func()) (*Matrix, error) {
	m := NewMatrix(n)
	copy(m.cells, old.cells)
	if err := estimateRows(ctx, m, old.n, threads, dist, onRow); err != nil {
		return nil, err
	}
	return m, nil
}

func estimateRows(ctx context.Context, m *Matrix, fromRow, threads int, dist func(i, j int) float64, onRow func()) error {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	if fromRow < 1 {
		fromRow = 1
	}

	var (
		next    = int64(fromRow) - 1 // atomic row dispenser
		wg      sync.WaitGroup
		rowLock sync.Mutex // serializes onRow only
	)
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				i := int(atomic.AddInt64(&next, 1))
				if i >= m.n {
					return
				}
				for j := 0; j < i; j++ {
					m.set(i, j, dist(i, j))
				}
				if onRow != nil {
					rowLock.Lock()
					onRow()
					rowLock.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}
