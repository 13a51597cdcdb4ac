package kmer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden vectors for a 14-mer walk over a sequence with an ambiguous base in
// the middle. A=00, C=01, G=10, T=11.
const goldenSeq = "CGATTAAAGATAGAAATACACGNTGCGAGCAATCAAATT"

func TestCanonical(t *testing.T) {
	want := []uint32{
		0b_01_10_00_11_11_00_00_00_10_00_11_00_10_00,
		0b_10_00_11_11_00_00_00_10_00_11_00_10_00_00,
		0b_00_11_11_00_00_00_10_00_11_00_10_00_00_00,
		0b_00_11_11_11_01_11_00_11_01_11_11_11_00_00,
		0b_11_00_00_00_10_00_11_00_10_00_00_00_11_00,
		0b_00_00_00_10_00_11_00_10_00_00_00_11_00_01,
		0b_00_00_10_00_11_00_10_00_00_00_11_00_01_00,
		0b_00_10_00_11_00_10_00_00_00_11_00_01_00_01,
		0b_01_10_11_10_11_00_11_11_11_01_11_00_11_01,
		0b_11_10_01_10_00_10_01_00_00_11_01_00_00_00,
		0b_00_11_11_11_10_00_11_11_10_01_11_01_10_01,
		0b_00_00_11_11_11_10_00_11_11_10_01_11_01_10,
	}

	cfg := Config{K: 14, SmerLen: 14}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, want, Extract([]byte(goldenSeq), cfg))
}

func TestSyncmerCanonical(t *testing.T) {
	want := []uint32{
		0b_00_11_11_00_00_00_10_00_11_00_10_00_00_00,
		0b_00_11_11_11_01_11_00_11_01_11_11_11_00_00,
		0b_00_00_00_10_00_11_00_10_00_00_00_11_00_01,
		0b_00_00_10_00_11_00_10_00_00_00_11_00_01_00,
		0b_00_10_00_11_00_10_00_00_00_11_00_01_00_01,
		0b_01_10_11_10_11_00_11_11_11_01_11_00_11_01,
		0b_00_11_11_11_10_00_11_11_10_01_11_01_10_01,
		0b_00_00_11_11_11_10_00_11_11_10_01_11_01_10,
	}

	cfg := Config{K: 14, SmerLen: 12, SyncmerOffset: 0}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, want, Extract([]byte(goldenSeq), cfg))
}

func TestSyncmerCanonicalOffset(t *testing.T) {
	want := []uint32{
		0b_10_00_11_11_00_00_00_10_00_11_00_10_00_00,
		0b_11_00_00_00_10_00_11_00_10_00_00_00_11_00,
	}

	cfg := Config{K: 14, SmerLen: 12, SyncmerOffset: 1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, want, Extract([]byte(goldenSeq), cfg))
}

func TestShortAndEmptySequences(t *testing.T) {
	cfg := Config{K: 15, SmerLen: 15}
	assert.Empty(t, Extract(nil, cfg))
	assert.Empty(t, Extract([]byte("ACGT"), cfg))
	assert.Empty(t, Extract([]byte("ACGTACGTACGTAC"), cfg)) // 14 < k
	assert.Len(t, Extract([]byte("ACGTACGTACGTACG"), cfg), 1)
}

func TestAmbiguousBasesResetWindow(t *testing.T) {
	cfg := Config{K: 14, SmerLen: 14}
	// The N splits the sequence into two stretches shorter than k.
	assert.Empty(t, Extract([]byte("ACGTACGTACGTANCGTACGTACGTACG"[:27]), cfg))
}

func reverseComplementSeq(seq []byte) []byte {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}
	out := make([]byte, len(seq))
	for i, b := range seq {
		out[len(seq)-1-i] = comp[b]
	}
	return out
}

// Canonicalization is involutive: a sequence and its reverse complement
// yield the same canonical k-mers at mirrored positions.
func TestReverseStrandYieldsSameKmers(t *testing.T) {
	for _, cfg := range []Config{
		{K: 14, SmerLen: 14},
		{K: 14, SmerLen: 12, SyncmerOffset: 0},
		{K: 15, SmerLen: 9, SyncmerOffset: 3},
	} {
		fwd := Extract([]byte(goldenSeq), cfg)
		rev := Extract(reverseComplementSeq([]byte(goldenSeq)), cfg)
		for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
			rev[i], rev[j] = rev[j], rev[i]
		}
		assert.Equal(t, fwd, rev, "config %s", cfg)
	}
}

func TestRevCompInvolution(t *testing.T) {
	for _, kmer := range []uint32{0, 1, 0b_01_10_00_11, 0xFFFF} {
		assert.Equal(t, kmer, RevComp(RevComp(kmer, 14), 14))
	}
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{K: 13, SmerLen: 9}.Validate())
	assert.Error(t, Config{K: 17, SmerLen: 9}.Validate())
	assert.Error(t, Config{K: 15, SmerLen: 16}.Validate())
	assert.Error(t, Config{K: 15, SmerLen: 9, SyncmerOffset: 7}.Validate())
	assert.NoError(t, Config{K: 15, SmerLen: 9, SyncmerOffset: 6}.Validate())
	assert.NoError(t, Config{K: 16, SmerLen: 16}.Validate())
}

func TestSpaceSize(t *testing.T) {
	// Odd k: no palindromes, exactly half the 4^k k-mers are canonical.
	assert.Equal(t, uint64(1<<29), SpaceSize(Config{K: 15, SmerLen: 15}))
	// Even k: palindromes are their own canonical form.
	assert.Equal(t, uint64(1<<31+1<<15), SpaceSize(Config{K: 16, SmerLen: 16}))
	// Syncmer subsampling scales by 1/(k-s+1).
	assert.Equal(t, uint64(1<<29)/7, SpaceSize(Config{K: 15, SmerLen: 9, SyncmerOffset: 3}))
}
