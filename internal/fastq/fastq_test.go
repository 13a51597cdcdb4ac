package fastq

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStreamPathCtx(t *testing.T) {
	path := writeTemp(t, "reads.fq", "@r1 extra\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n")
	var reads []Read
	skipped, err := StreamPathCtx(context.Background(), path, func(r Read) error {
		reads = append(reads, r)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, reads, 2)
	assert.Equal(t, "r1", reads[0].ID)
	assert.Equal(t, []byte("ACGT"), reads[0].Seq)
	assert.Equal(t, "r2", reads[1].ID)
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	// Second record has a quality string of the wrong length, third is fine.
	path := writeTemp(t, "reads.fq",
		"@r1\nACGT\n+\nIIII\n@bad\nACGT\n+\nII\n@r3\nGGGG\n+\nIIII\n")
	var ids []string
	skipped, err := StreamPathCtx(context.Background(), path, func(r Read) error {
		ids = append(ids, r.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"r1", "r3"}, ids)
}

func TestTruncatedFileCountsAsSkip(t *testing.T) {
	path := writeTemp(t, "reads.fq", "@r1\nACGT\n+\nIIII\n@r2\nACGT\n")
	var ids []string
	skipped, err := StreamPathCtx(context.Background(), path, func(r Read) error {
		ids = append(ids, r.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"r1"}, ids)
}

func TestStreamReadsFastaFallback(t *testing.T) {
	path := writeTemp(t, "reads.fasta", ">r1\nACGTACGT\n")
	var ids []string
	_, err := StreamReadsPathCtx(context.Background(), path, func(r Read) error {
		ids = append(ids, r.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)
}
