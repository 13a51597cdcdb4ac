// internal/taxmap/split.go
package taxmap

import (
	"fmt"

	"github.com/trevor-schnegg/SKiM/internal/fasta"
)

// SplitRecord cuts a record into fragments of at most maxLen bases with
// overlap bases shared between consecutive fragments. Fragment IDs get a
// ".<index>" suffix. Records within maxLen come back unchanged.
//
// Oversized references defeat short-k-mer classification (a file covering too
// much of the k-mer space hits everything), so preprocessing bounds each
// indexed file's length before the distance stage ever sees it.
func SplitRecord(rec fasta.Record, maxLen, overlap int) []fasta.Record {
	if maxLen <= 0 || len(rec.Seq) <= maxLen {
		return []fasta.Record{rec}
	}
	if overlap < 0 {
		overlap = 0
	}
	step := maxLen - overlap
	if step <= 0 {
		step = maxLen
	}
	var frags []fasta.Record
	for i, off := 0, 0; off < len(rec.Seq); i, off = i+1, off+step {
		end := off + maxLen
		if end > len(rec.Seq) {
			end = len(rec.Seq)
		}
		frags = append(frags, fasta.Record{
			ID:  fmt.Sprintf("%s.%d", rec.ID, i),
			Seq: rec.Seq[off:end],
		})
		if end == len(rec.Seq) {
			break
		}
	}
	return frags
}
