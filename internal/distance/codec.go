// internal/distance/codec.go
package distance

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

// Artifact is the persisted pairwise-distance stage output: the matrix, the
// file2taxid entries it indexes, and the extraction configuration it was
// computed under (so downstream stages can refuse a mismatched build).
type Artifact struct {
	Config  kmer.Config
	Entries []taxmap.Entry
	Matrix  *Matrix
}

// Write persists the artifact atomically at path.
func Write(path string, art *Artifact) error {
	if len(art.Entries) != art.Matrix.N() {
		return fmt.Errorf("distance artifact has %d entries but an N=%d matrix", len(art.Entries), art.Matrix.N())
	}
	if err := art.Matrix.Validate(); err != nil {
		return err
	}
	h := artifact.HeaderFor(artifact.KindDistances, art.Config)
	h.NumFiles = uint64(len(art.Entries))
	h.TotalKmers = kmer.SpaceSize(art.Config)

	return artifact.WriteFile(path, h, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, e := range art.Entries {
			if err := writeEntry(bw, e); err != nil {
				return err
			}
		}
		var cell [8]byte
		for _, v := range art.Matrix.cells {
			binary.LittleEndian.PutUint64(cell[:], math.Float64bits(v))
			if _, err := bw.Write(cell[:]); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
}

// Read loads a distance artifact, verifying its checksum.
func Read(path string) (*Artifact, error) {
	var art *Artifact
	err := artifact.ReadFile(path, artifact.KindDistances, func(h artifact.Header, r io.Reader) error {
		br := bufio.NewReader(r)
		n := int(h.NumFiles)
		entries := make([]taxmap.Entry, n)
		for i := range entries {
			e, err := readEntry(br)
			if err != nil {
				return err
			}
			entries[i] = e
		}
		m := NewMatrix(n)
		var cell [8]byte
		for i := range m.cells {
			if _, err := io.ReadFull(br, cell[:]); err != nil {
				return fmt.Errorf("distance matrix cell %d: %w", i, err)
			}
			m.cells[i] = math.Float64frombits(binary.LittleEndian.Uint64(cell[:]))
		}
		art = &Artifact{Config: h.Config(), Entries: entries, Matrix: m}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := art.Matrix.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return art, nil
}

func writeEntry(w io.Writer, e taxmap.Entry) error {
	name := []byte(e.Path)
	if len(name) > math.MaxUint16 {
		return fmt.Errorf("reference path too long (%d bytes): %s", len(name), e.Path)
	}
	var buf [10]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(name)))
	binary.LittleEndian.PutUint64(buf[2:10], e.TaxID)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(name)
	return err
}

func readEntry(r io.Reader) (taxmap.Entry, error) {
	var buf [10]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return taxmap.Entry{}, err
	}
	name := make([]byte, binary.LittleEndian.Uint16(buf[0:2]))
	if _, err := io.ReadFull(r, name); err != nil {
		return taxmap.Entry{}, err
	}
	return taxmap.Entry{Path: string(name), TaxID: binary.LittleEndian.Uint64(buf[2:10])}, nil
}
