// internal/classify/classify.go
package classify

import (
	"context"
	"fmt"
	"sync"

	"github.com/trevor-schnegg/SKiM/internal/database"
	"github.com/trevor-schnegg/SKiM/internal/fastq"
	"github.com/trevor-schnegg/SKiM/internal/kmer"
)

// Options controls one classification run.
type Options struct {
	ExpCutoff int // e of the 10^-e significance threshold
	NFixed    int // fixed trial count of the precomputed lookup table
	Threads   int // worker goroutines (>=1)
}

const (
	DefaultExpCutoff = 9
	DefaultNFixed    = 100
)

// Result is the per-read outcome, one output row each. Reads appear in the
// output in input order regardless of which worker scored them.
type Result struct {
	ReadID string
	database.Classification
}

// Row renders the tab-separated output line: classification state, read ID,
// taxid, and the winning reference file.
func (r Result) Row() string {
	if !r.Found {
		return fmt.Sprintf("U\t%s\t0\tnone", r.ReadID)
	}
	return fmt.Sprintf("C\t%s\t%d\t%s", r.ReadID, r.TaxID, r.File)
}

// Stats summarizes a finished run.
type Stats struct {
	Reads      int
	Classified int
	Bases      uint64
	Skipped    int // malformed input records dropped by the reader
}

// CheckConfig rejects a database built under a different k-mer configuration
// than the caller requested. Classifying under mismatched parameters would
// silently find nothing, so the mismatch is fatal up front.
func CheckConfig(db *database.Database, want kmer.Config) error {
	if !db.Cfg.Equal(want) {
		return fmt.Errorf("database was built with %s but %s was requested", db.Cfg, want)
	}
	return nil
}

// Run streams the reads of readsPath through a worker pool, scores each
// against db, and emits one Result per read in input order. Workers score
// reads in parallel; a single collector reassembles their results by
// sequence number before calling emit, so output order is deterministic.
func Run(ctx context.Context, db *database.Database, readsPath string, opts Options, emit func(Result) error) (Stats, error) {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.NFixed < 1 {
		return Stats{}, fmt.Errorf("fixed trial count must be >= 1, got %d", opts.NFixed)
	}
	if opts.ExpCutoff < 1 {
		return Stats{}, fmt.Errorf("significance exponent must be >= 1, got %d", opts.ExpCutoff)
	}
	lookup := db.LookupTable(opts.NFixed)

	type job struct {
		seqNo int
		read  fastq.Read
	}
	type scored struct {
		seqNo int
		res   Result
	}
	jobs := make(chan job, opts.Threads*2)
	results := make(chan scored, opts.Threads*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(opts.Threads)
	for w := 0; w < opts.Threads; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					c := db.ClassifyRead(j.read.Seq, lookup, opts.NFixed, opts.ExpCutoff)
					select {
					case results <- scored{seqNo: j.seqNo, res: Result{ReadID: j.read.ID, Classification: c}}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector: reorders by sequence number so emit sees input order.
	var (
		stats Stats
		cerr  error
		cwg   sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		pending := make(map[int]Result)
		next := 0
		for s := range results {
			if cerr != nil {
				continue
			}
			pending[s.seqNo] = s.res
			for {
				res, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if res.Found {
					stats.Classified++
				}
				if err := emit(res); err != nil && cerr == nil {
					cerr = err
				}
			}
		}
	}()

	// Feed reads
	seqNo := 0
	skipped, ferr := fastq.StreamReadsPathCtx(ctx, readsPath, func(r fastq.Read) error {
		stats.Reads++
		stats.Bases += uint64(len(r.Seq))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case jobs <- job{seqNo: seqNo, read: r}:
			seqNo++
			return nil
		}
	})
	stats.Skipped = skipped

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	if ctx.Err() != nil {
		return stats, ctx.Err()
	}
	if ferr != nil {
		return stats, ferr
	}
	return stats, cerr
}
