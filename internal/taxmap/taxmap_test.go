package taxmap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevor-schnegg/SKiM/internal/fasta"
)

func TestParseSkipsBadLines(t *testing.T) {
	in := "a.fna\t123\nno-tab-here\nb.fna\tnot-a-number\nc.fna\t0\n"
	var warned []int
	entries, skipped, err := parse(strings.NewReader(in), func(line int, _ string) {
		warned = append(warned, line)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []int{1, 2}, warned)
	assert.Equal(t, []Entry{{"a.fna", 123}, {"c.fna", 0}}, entries)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	entries := []Entry{{"x.fna", 9606}, {"split/y.fna.0", 0}}
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, entries))

	got, skipped, err := parse(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, entries, got)
}

func TestSplitRecordShortPassThrough(t *testing.T) {
	rec := fasta.Record{ID: "r", Seq: []byte("ACGTACGT")}
	frags := SplitRecord(rec, 100, 10)
	require.Len(t, frags, 1)
	assert.Equal(t, rec, frags[0])
}

func TestSplitRecordOverlap(t *testing.T) {
	seq := []byte("AAAAACCCCCGGGGGTTTTT") // 20 bp
	frags := SplitRecord(fasta.Record{ID: "r", Seq: seq}, 10, 5)
	// step = 5: [0,10) [5,15) [10,20)
	require.Len(t, frags, 3)
	assert.Equal(t, "r.0", frags[0].ID)
	assert.Equal(t, []byte("AAAAACCCCC"), frags[0].Seq)
	assert.Equal(t, []byte("CCCCCGGGGG"), frags[1].Seq)
	assert.Equal(t, []byte("GGGGGTTTTT"), frags[2].Seq)

	// Every base of the original appears in some fragment.
	covered := make([]bool, len(seq))
	off := 0
	for _, f := range frags {
		for i := range f.Seq {
			covered[off+i] = true
		}
		off += 5
	}
	for i, c := range covered {
		assert.True(t, c, "base %d uncovered", i)
	}
}
