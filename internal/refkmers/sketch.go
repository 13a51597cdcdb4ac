// internal/refkmers/sketch.go
package refkmers

import (
	"context"
	"math"

	"github.com/will-rowe/ntHash"

	"github.com/trevor-schnegg/SKiM/internal/fasta"
)

// Sketch is a fixed-size MinHash signature of a reference entry's k-mer
// content. It bounds the distance stage's memory at the cost of estimating
// (rather than counting) Jaccard similarity; useful when N or the references
// are too large for exact bitmaps.
type Sketch struct {
	kSize     uint
	signature []uint64
}

// NewSketch returns an empty sketch with `size` signature slots.
func NewSketch(k int, size int) *Sketch {
	sig := make([]uint64, size)
	for i := range sig {
		sig[i] = math.MaxUint64
	}
	return &Sketch{kSize: uint(k), signature: sig}
}

// Add folds a sequence into the sketch using the canonical ntHash rolling
// hash. Sequences shorter than k are ignored.
func (s *Sketch) Add(sequence []byte) error {
	if len(sequence) < int(s.kSize) {
		return nil
	}
	hasher, err := ntHash.New(&sequence, s.kSize)
	if err != nil {
		return err
	}
	const canonical = true
	for hv := range hasher.Hash(canonical) {
		h1 := uint32(hv)
		h2 := uint32(hv >> 32)
		for i := range s.signature {
			v := uint64(h1) + uint64(i)*uint64(h2)
			if v < s.signature[i] {
				s.signature[i] = v
			}
		}
	}
	return nil
}

// Empty reports whether nothing has been folded in.
func (s *Sketch) Empty() bool {
	for _, v := range s.signature {
		if v != math.MaxUint64 {
			return false
		}
	}
	return true
}

// Distance estimates 1 - Jaccard similarity as the fraction of signature
// slots that disagree.
func (s *Sketch) Distance(other *Sketch) float64 {
	if s.Empty() && other.Empty() {
		return 1.0
	}
	match := 0
	for i := range s.signature {
		if s.signature[i] == other.signature[i] {
			match++
		}
	}
	return 1.0 - float64(match)/float64(len(s.signature))
}

// SketchFiles builds the sketch of one reference entry (one or more FASTA
// files).
func SketchFiles(ctx context.Context, paths []string, k int, size int) (*Sketch, error) {
	s := NewSketch(k, size)
	for _, path := range paths {
		err := fasta.StreamPathCtx(ctx, path, func(rec fasta.Record) error {
			return s.Add(rec.Seq)
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
