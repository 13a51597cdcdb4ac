// internal/artifact/artifact.go
//
// Common on-disk envelope for SKiM artifacts (pairwise distances, exact and
// lossy databases): a fixed 64-byte header carrying the extraction
// configuration, a length-delimited body, and an xxh3 checksum trailer.
// The header is readable on its own so downstream stages can detect a
// configuration mismatch without loading the body. Artifacts are written to
// a temporary file and promoted by rename only after a successful write, so
// a final artifact name never points at a partial file.
package artifact

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
)

// Kind discriminates artifact payloads.
type Kind uint8

const (
	KindDistances Kind = 1
	KindDatabase  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindDistances:
		return "pairwise-distances"
	case KindDatabase:
		return "database"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// MarshalYAML renders the kind name in inspect output.
func (k Kind) MarshalYAML() (interface{}, error) { return k.String(), nil }

const (
	magic      = "SKIM"
	Version    = 1
	headerSize = 64
)

var (
	ErrBadMagic   = errors.New("not a skim artifact (bad magic)")
	ErrBadVersion = errors.New("unsupported artifact version")
	ErrBadKind    = errors.New("unexpected artifact kind")
	ErrChecksum   = errors.New("artifact body checksum mismatch")
)

// Header is the fixed-size artifact preamble.
type Header struct {
	Kind          Kind   `yaml:"kind"`
	Version       uint16 `yaml:"version"`
	K             uint16 `yaml:"kmer_length"`
	SmerLen       uint16 `yaml:"smer_length"`
	SyncmerOffset uint16 `yaml:"syncmer_offset"`
	LossyLevel    uint16 `yaml:"lossy_level"` // 0 = exact
	NumFiles      uint64 `yaml:"num_files"`
	NumKeys       uint64 `yaml:"num_keys"` // 0 for distance artifacts
	TotalKmers    uint64 `yaml:"total_kmers"`
	BodyLen       uint64 `yaml:"body_bytes"`
}

// Config recovers the extraction configuration the artifact was built under.
func (h Header) Config() kmer.Config {
	return kmer.Config{K: int(h.K), SmerLen: int(h.SmerLen), SyncmerOffset: int(h.SyncmerOffset)}
}

// HeaderFor builds a header skeleton from an extraction configuration.
func HeaderFor(kind Kind, cfg kmer.Config) Header {
	return Header{
		Kind:          kind,
		Version:       Version,
		K:             uint16(cfg.K),
		SmerLen:       uint16(cfg.SmerLen),
		SyncmerOffset: uint16(cfg.SyncmerOffset),
	}
}

func (h Header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic)
	buf[4] = uint8(h.Kind)
	le := binary.LittleEndian
	le.PutUint16(buf[6:8], h.Version)
	le.PutUint16(buf[8:10], h.K)
	le.PutUint16(buf[10:12], h.SmerLen)
	le.PutUint16(buf[12:14], h.SyncmerOffset)
	le.PutUint16(buf[14:16], h.LossyLevel)
	le.PutUint64(buf[16:24], h.NumFiles)
	le.PutUint64(buf[24:32], h.NumKeys)
	le.PutUint64(buf[32:40], h.TotalKmers)
	le.PutUint64(buf[40:48], h.BodyLen)
	return buf
}

func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize || string(buf[0:4]) != magic {
		return Header{}, ErrBadMagic
	}
	le := binary.LittleEndian
	h := Header{
		Kind:          Kind(buf[4]),
		Version:       le.Uint16(buf[6:8]),
		K:             le.Uint16(buf[8:10]),
		SmerLen:       le.Uint16(buf[10:12]),
		SyncmerOffset: le.Uint16(buf[12:14]),
		LossyLevel:    le.Uint16(buf[14:16]),
		NumFiles:      le.Uint64(buf[16:24]),
		NumKeys:       le.Uint64(buf[24:32]),
		TotalKmers:    le.Uint64(buf[32:40]),
		BodyLen:       le.Uint64(buf[40:48]),
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	return h, nil
}

// Inspect reads only the header of the artifact at path.
func Inspect(path string) (Header, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer fh.Close()
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(fh, buf); err != nil {
		return Header{}, fmt.Errorf("reading artifact header of %s: %w", path, err)
	}
	return unmarshalHeader(buf)
}

// WriteFile writes an artifact atomically: header, body (hashed as written),
// and checksum trailer all go to a temp file in the destination directory,
// then a rename onto the final path.
func WriteFile(path string, h Header, writeBody func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create output file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	// Header placeholder; rewritten once the body length is known.
	if _, err = tmp.Write(make([]byte, headerSize)); err != nil {
		return err
	}

	hasher := xxh3.New()
	counter := &countingWriter{w: io.MultiWriter(tmp, hasher)}
	if err = writeBody(counter); err != nil {
		return err
	}

	var trailer [8]byte
	binary.LittleEndian.PutUint64(trailer[:], hasher.Sum64())
	if _, err = tmp.Write(trailer[:]); err != nil {
		return err
	}

	h.BodyLen = counter.n
	if _, err = tmp.WriteAt(h.marshal(), 0); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CreateFile writes a plain-text artifact (file2taxid, classification rows)
// with the same atomicity as WriteFile: write runs against a buffered temp
// file in the destination directory, promoted onto path only after success.
// An interrupted or failed run never leaves a partial file under the final
// name.
func CreateFile(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create output file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile opens an artifact, validates magic/version/kind, hands the body to
// readBody, and verifies the checksum trailer afterwards.
func ReadFile(path string, want Kind, readBody func(h Header, r io.Reader) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file at %s: %w", path, err)
	}
	defer fh.Close()

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(fh, buf); err != nil {
		return fmt.Errorf("reading artifact header of %s: %w", path, err)
	}
	h, err := unmarshalHeader(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if h.Kind != want {
		return fmt.Errorf("%w: %s holds %s, expected %s", ErrBadKind, path, h.Kind, want)
	}

	hasher := xxh3.New()
	body := io.LimitReader(fh, int64(h.BodyLen))
	if err := readBody(h, io.TeeReader(body, hasher)); err != nil {
		return err
	}
	// Hash whatever the decoder did not consume so the checksum still covers
	// the whole body.
	if _, err := io.Copy(hasher, body); err != nil {
		return err
	}

	var trailer [8]byte
	if _, err := io.ReadFull(fh, trailer[:]); err != nil {
		return fmt.Errorf("reading artifact trailer of %s: %w", path, err)
	}
	if binary.LittleEndian.Uint64(trailer[:]) != hasher.Sum64() {
		return fmt.Errorf("%s: %w", path, ErrChecksum)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// OutputPath resolves an output location the way every stage binary does: a
// directory gets the canonical file name appended, anything else has its
// extension replaced by the canonical one.
func OutputPath(loc, canonical string) string {
	if st, err := os.Stat(loc); err == nil && st.IsDir() {
		return filepath.Join(loc, canonical)
	}
	base := strings.TrimSuffix(loc, filepath.Ext(loc))
	return base + "." + canonical
}
