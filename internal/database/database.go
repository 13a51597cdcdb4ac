// internal/database/database.go
//
// The persisted index: a sorted table of canonical k-mer keys, one compressed
// membership set per key, the ordered position→taxid array, and the build
// configuration. Loaded databases are immutable and safe for unrestricted
// concurrent lookups.
package database

import (
	"fmt"
	"math"
	"slices"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/stats"
)

type Database struct {
	Cfg        kmer.Config
	LossyLevel int    // 0 = exact
	TotalKmers uint64 // size of the canonical (syncmer) k-mer space under Cfg
	Files      []string
	TaxIDs     []uint64
	PValues    []float64 // per ordered position: indexed k-mers / TotalKmers
	Keys       []uint32  // strictly sorted, unique
	Sets       []MembershipSet
}

// NumFiles is the width N of every membership set.
func (db *Database) NumFiles() int { return len(db.Files) }

// Lookup binary-searches the sorted key table. A missing k-mer is the normal
// "no information" case, not an error.
func (db *Database) Lookup(key uint32) (*MembershipSet, bool) {
	i, found := slices.BinarySearch(db.Keys, key)
	if !found {
		return nil, false
	}
	return &db.Sets[i], true
}

// Validate enforces the structural invariants that must hold before a
// database may be persisted or used: strictly sorted unique keys, parallel
// table lengths, and every membership position inside [0, N).
func (db *Database) Validate() error {
	if err := db.Cfg.Validate(); err != nil {
		return err
	}
	if len(db.Files) == 0 {
		return fmt.Errorf("database has no reference files")
	}
	if len(db.Files) != len(db.TaxIDs) || len(db.Files) != len(db.PValues) {
		return fmt.Errorf("file/taxid/p-value arrays disagree: %d/%d/%d",
			len(db.Files), len(db.TaxIDs), len(db.PValues))
	}
	if len(db.Keys) != len(db.Sets) {
		return fmt.Errorf("key table has %d keys but %d membership sets", len(db.Keys), len(db.Sets))
	}
	n := uint32(len(db.Files))
	for i := range db.Keys {
		if i > 0 && db.Keys[i] <= db.Keys[i-1] {
			return fmt.Errorf("key table unsorted or duplicated at index %d", i)
		}
		if len(db.Sets[i].runs) == 0 {
			return fmt.Errorf("key %#x has an empty membership set", db.Keys[i])
		}
		if err := db.Sets[i].validate(n); err != nil {
			return fmt.Errorf("key %#x: %w", db.Keys[i], err)
		}
	}
	return nil
}

// recomputePValues derives each ordered position's null-model probability
// from the membership sets. Called at build time and again after lossy
// widening (widening grows memberships, so the null model must follow).
func (db *Database) recomputePValues() {
	counts := make([]uint64, len(db.Files))
	for i := range db.Sets {
		for _, r := range db.Sets[i].runs {
			for p := r.Start; p < r.End; p++ {
				counts[p]++
			}
		}
	}
	pv := make([]float64, len(counts))
	for i, c := range counts {
		pv[i] = float64(c) / float64(db.TotalKmers)
	}
	db.PValues = pv
}

// LookupTable precomputes the classifier's per-file log10 tail probabilities
// for hit counts 0..nFixed.
func (db *Database) LookupTable(nFixed int) [][]float64 {
	return stats.LookupTable(db.PValues, nFixed)
}

// Classification is the outcome of scoring one read against the database.
type Classification struct {
	Found bool
	File  string
	TaxID uint64
	LogP  float64 // log10 of the winning tail probability
}

// ClassifyRead extracts the read's canonical k-mers under the database's own
// configuration, accumulates per-file hits over the membership sets, and
// applies the binomial significance test. cutoffExp is the exponent e of the
// 10^-e decision threshold; lookup must come from LookupTable(nFixed).
//
// A file is only scored when its observed hits exceed its expectation under
// the null model (everything else has p-value > 0.5 and cannot win). Among
// significant files the smallest tail probability wins, ties going to the
// lowest ordered position.
func (db *Database) ClassifyRead(seq []byte, lookup [][]float64, nFixed int, cutoffExp int) Classification {
	hits := make([]float64, db.NumFiles())
	nTotal := 0.0

	it := kmer.NewIter(seq, db.Cfg)
	for {
		key, ok := it.Next()
		if !ok {
			break
		}
		if set, found := db.Lookup(key); found {
			set.AddHits(hits)
		}
		nTotal++
	}
	if nTotal == 0 {
		return Classification{}
	}

	bestIdx := -1
	bestLogP := math.Inf(1)
	for i, h := range hits {
		if h <= nTotal*db.PValues[i] {
			continue
		}
		x := int(math.Round(h * float64(nFixed) / nTotal))
		if x > nFixed {
			x = nFixed
		}
		if logP := lookup[i][x]; logP < bestLogP {
			bestIdx = i
			bestLogP = logP
		}
	}
	if bestIdx < 0 || bestLogP >= -float64(cutoffExp) {
		return Classification{}
	}
	return Classification{Found: true, File: db.Files[bestIdx], TaxID: db.TaxIDs[bestIdx], LogP: bestLogP}
}
