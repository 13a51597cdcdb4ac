package artifact

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
)

func TestWriteReadInspectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.skim.pd")

	cfg := kmer.Config{K: 15, SmerLen: 9, SyncmerOffset: 3}
	h := HeaderFor(KindDistances, cfg)
	h.NumFiles = 7
	h.TotalKmers = 12345

	payload := []byte("some body bytes")
	require.NoError(t, WriteFile(path, h, func(w io.Writer) error {
		_, err := w.Write(payload)
		return err
	}))

	// Header-only inspection.
	got, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, KindDistances, got.Kind)
	assert.Equal(t, cfg, got.Config())
	assert.Equal(t, uint64(7), got.NumFiles)
	assert.Equal(t, uint64(len(payload)), got.BodyLen)

	// Full read with checksum verification.
	var body []byte
	require.NoError(t, ReadFile(path, KindDistances, func(h Header, r io.Reader) error {
		var err error
		body, err = io.ReadAll(r)
		return err
	}))
	assert.Equal(t, payload, body)
}

func TestReadFileWrongKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.skim.db")
	require.NoError(t, WriteFile(path, HeaderFor(KindDatabase, kmer.Config{K: 15, SmerLen: 15}), func(w io.Writer) error {
		_, err := w.Write([]byte("db"))
		return err
	}))
	err := ReadFile(path, KindDistances, func(Header, io.Reader) error { return nil })
	assert.ErrorIs(t, err, ErrBadKind)
}

func TestCorruptBodyDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.skim.pd")
	require.NoError(t, WriteFile(path, HeaderFor(KindDistances, kmer.Config{K: 15, SmerLen: 15}), func(w io.Writer) error {
		_, err := w.Write([]byte{1, 2, 3, 4})
		return err
	}))

	// Flip one body byte in place.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[66] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	err = ReadFile(path, KindDistances, func(_ Header, r io.Reader) error {
		_, err := io.ReadAll(r)
		return err
	})
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestNotAnArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))
	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestNoPartialArtifactOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fail.skim.pd")
	err := WriteFile(path, HeaderFor(KindDistances, kmer.Config{K: 15, SmerLen: 15}), func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return assert.AnError
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed write must not leave the final name behind")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

func TestCreateFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.skim.f2t")
	require.NoError(t, CreateFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("a.fasta\t7\nb.fasta\t0\n"))
		return err
	}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.fasta\t7\nb.fasta\t0\n", string(raw))
}

// A failed or interrupted text write must leave neither the final name nor a
// stray temp file, same as the binary artifacts.
func TestCreateFileNoPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fail.skim.r2f")
	err := CreateFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("C\tread1\t7\ta.fasta\n"))
		return assert.AnError
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed write must not leave the final name behind")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

func TestHeaderRoundTripBinary(t *testing.T) {
	h := Header{Kind: KindDatabase, Version: Version, K: 16, SmerLen: 11, SyncmerOffset: 2,
		LossyLevel: 3, NumFiles: 42, NumKeys: 99, TotalKmers: 1 << 31, BodyLen: 77}
	got, err := unmarshalHeader(h.marshal())
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, uint64(77), binary.LittleEndian.Uint64(h.marshal()[40:48]))
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "skim.db"), OutputPath(dir, "skim.db"))
	assert.Equal(t, "/tmp/out.skim.db", OutputPath("/tmp/out.txt", "skim.db"))
	assert.Equal(t, "/tmp/out.skim.db", OutputPath("/tmp/out", "skim.db"))
}
