package refkmers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
)

func writeFasta(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBitmapMatchesExtractor(t *testing.T) {
	dir := t.TempDir()
	seq := "CGATTAAAGATAGAAATACACGTGCGAGCAATCAAATT"
	path := writeFasta(t, dir, "ref.fna", ">r1\n"+seq+"\n")

	cfg := kmer.Config{K: 14, SmerLen: 14}
	bm, err := Bitmap(context.Background(), []string{path}, cfg)
	require.NoError(t, err)

	want := roaring.New()
	for _, k := range kmer.Extract([]byte(seq), cfg) {
		want.Add(k)
	}
	assert.True(t, want.Equals(bm))
}

func TestJaccardDistance(t *testing.T) {
	a := roaring.BitmapOf(1, 2, 3, 4)
	b := roaring.BitmapOf(3, 4, 5, 6)
	// |∩| = 2, |∪| = 6
	assert.InDelta(t, 1.0-2.0/6.0, JaccardDistance(a, b), 1e-12)
	assert.InDelta(t, 0.0, JaccardDistance(a, a), 1e-12)
	assert.Equal(t, 1.0, JaccardDistance(roaring.New(), roaring.New()))
	assert.Equal(t, 1.0, JaccardDistance(roaring.New(), a))
}

func TestEntryPaths(t *testing.T) {
	got := EntryPaths("/refs", "a.fna$split/b.fna")
	assert.Equal(t, []string{
		filepath.Join("/refs", "a.fna"),
		filepath.Join("/refs", "split/b.fna"),
	}, got)
}

func TestSketchIdenticalAndDisjoint(t *testing.T) {
	seqA := []byte("CGATTAAAGATAGAAATACACGTGCGAGCAATCAAATTCGATTAAAGATAG")
	seqB := []byte("GGGGGGGGGGGGGGGGGGGGCCCCCCCCCCCCCCCCCCCCGGGGCCCCGGG")

	s1 := NewSketch(15, 32)
	require.NoError(t, s1.Add(seqA))
	s2 := NewSketch(15, 32)
	require.NoError(t, s2.Add(seqA))
	s3 := NewSketch(15, 32)
	require.NoError(t, s3.Add(seqB))

	assert.Equal(t, 0.0, s1.Distance(s2), "identical input must sketch identically")
	assert.Greater(t, s1.Distance(s3), 0.5, "disjoint sequences should be distant")

	empty := NewSketch(15, 32)
	assert.True(t, empty.Empty())
	assert.Equal(t, 1.0, empty.Distance(NewSketch(15, 32)))
}
