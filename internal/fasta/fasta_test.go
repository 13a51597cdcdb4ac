package fasta

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamCtx(t *testing.T) {
	in := ">seq1 some description\nACGT\nACGT\n\n>seq2\nTTTT\n"
	var recs []Record
	err := StreamCtx(context.Background(), strings.NewReader(in), func(r Record) error {
		recs = append(recs, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "seq1", recs[0].ID)
	assert.Equal(t, []byte("ACGTACGT"), recs[0].Seq)
	assert.Equal(t, "seq2", recs[1].ID)
	assert.Equal(t, []byte("TTTT"), recs[1].Seq)
}

func TestStreamCtxEmitError(t *testing.T) {
	in := ">a\nAC\n>b\nGT\n"
	wantErr := errors.New("stop")
	count := 0
	err := StreamCtx(context.Background(), strings.NewReader(in), func(Record) error {
		count++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, count)
}

func TestStreamCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := StreamCtx(ctx, strings.NewReader(">a\nACGT\n"), func(Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	seq := bytes.Repeat([]byte("ACGT"), 50) // 200 bp forces line wrapping
	require.NoError(t, WriteRecord(&buf, Record{ID: "frag.0", Seq: seq}))

	var recs []Record
	require.NoError(t, StreamCtx(context.Background(), &buf, func(r Record) error {
		recs = append(recs, r)
		return nil
	}))
	require.Len(t, recs, 1)
	assert.Equal(t, "frag.0", recs[0].ID)
	assert.Equal(t, seq, recs[0].Seq)
}

func TestIsFastaPath(t *testing.T) {
	assert.True(t, IsFastaPath("x.fna"))
	assert.True(t, IsFastaPath("x.fasta.gz"))
	assert.True(t, IsFastaPath("x.fa"))
	assert.False(t, IsFastaPath("x.fastq"))
	assert.False(t, IsFastaPath("x.txt"))
}
