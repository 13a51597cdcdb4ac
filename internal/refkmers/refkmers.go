// internal/refkmers/refkmers.go
//
// Per-reference canonical k-mer sets. The exact representation is a roaring
// bitmap over the packed k-mer space; for very large corpora the distance
// stage can use bounded MinHash sketches instead (see sketch.go).
package refkmers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/trevor-schnegg/SKiM/internal/fasta"
	"github.com/trevor-schnegg/SKiM/internal/kmer"
)

// GroupSeparator joins multiple file names into one reference entry (the
// preprocessing stage may group split fragments under a single index column).
const GroupSeparator = "$"

// Bitmap accumulates the canonical k-mers of one reference entry (one or more
// FASTA files) into a single bitmap. Unreadable or malformed records inside
// the file are the caller's per-file concern; an open error is returned.
func Bitmap(ctx context.Context, paths []string, cfg kmer.Config) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for _, path := range paths {
		err := fasta.StreamPathCtx(ctx, path, func(rec fasta.Record) error {
			it := kmer.NewIter(rec.Seq, cfg)
			for {
				k, ok := it.Next()
				if !ok {
					return nil
				}
				bm.Add(k)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return bm, nil
}

// EntryPaths expands a file2taxid entry name into absolute file paths under
// the reference directory, honoring grouped entries.
func EntryPaths(refDir, entry string) []string {
	parts := strings.Split(entry, GroupSeparator)
	paths := make([]string, len(parts))
	for i, p := range parts {
		paths[i] = filepath.Join(refDir, p)
	}
	return paths
}

// JaccardDistance is 1 - |A∩B| / |A∪B|. Two empty sets are maximally
// distant (the estimator defines distance(i,i)=0 separately, so this only
// ever scores distinct references).
func JaccardDistance(a, b *roaring.Bitmap) float64 {
	union := a.OrCardinality(b)
	if union == 0 {
		return 1.0
	}
	inter := a.AndCardinality(b)
	return 1.0 - float64(inter)/float64(union)
}
