// internal/refkmers/pool.go
package refkmers

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

// BitmapAll builds the exact k-mer bitmap of every entry with a fixed worker
// pool. Results land at the entry's own index, so the output order matches
// the file2taxid order regardless of scheduling. onDone (optional) fires once
// per finished entry for progress reporting.
func BitmapAll(ctx context.Context, refDir string, entries []taxmap.Entry, cfg kmer.Config, threads int, onDone func()) ([]*roaring.Bitmap, error) {
	bitmaps := make([]*roaring.Bitmap, len(entries))
	err := forEachEntry(ctx, len(entries), threads, func(i int) error {
		bm, err := Bitmap(ctx, EntryPaths(refDir, entries[i].Path), cfg)
		if err != nil {
			return err
		}
		bitmaps[i] = bm
		if onDone != nil {
			onDone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bitmaps, nil
}

// SketchAll is BitmapAll for bounded MinHash sketches.
func SketchAll(ctx context.Context, refDir string, entries []taxmap.Entry, k, size, threads int, onDone func()) ([]*Sketch, error) {
	sketches := make([]*Sketch, len(entries))
	err := forEachEntry(ctx, len(entries), threads, func(i int) error {
		s, err := SketchFiles(ctx, EntryPaths(refDir, entries[i].Path), k, size)
		if err != nil {
			return err
		}
		sketches[i] = s
		if onDone != nil {
			onDone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sketches, nil
}

func forEachEntry(ctx context.Context, n, threads int, work func(i int) error) error {
	if threads < 1 {
		threads = 1
	}
	var (
		next     int64 = -1
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
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
				if i >= n {
					return
				}
				if err := work(i); err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
