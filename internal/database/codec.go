// internal/database/codec.go
package database

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
)

// Write persists the database atomically. Validate runs first: a database
// violating its structural invariants is never written.
func Write(path string, db *Database) error {
	if err := db.Validate(); err != nil {
		return err
	}
	h := artifact.HeaderFor(artifact.KindDatabase, db.Cfg)
	h.LossyLevel = uint16(db.LossyLevel)
	h.NumFiles = uint64(len(db.Files))
	h.NumKeys = uint64(len(db.Keys))
	h.TotalKmers = db.TotalKmers

	return artifact.WriteFile(path, h, func(w io.Writer) error {
		bw := bufio.NewWriter(w)

		var word [8]byte
		for i, name := range db.Files {
			if len(name) > math.MaxUint16 {
				return fmt.Errorf("reference path too long (%d bytes): %s", len(name), name)
			}
			binary.LittleEndian.PutUint16(word[:2], uint16(len(name)))
			if _, err := bw.Write(word[:2]); err != nil {
				return err
			}
			if _, err := bw.WriteString(name); err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(word[:], db.TaxIDs[i])
			if _, err := bw.Write(word[:]); err != nil {
				return err
			}
		}
		for _, p := range db.PValues {
			binary.LittleEndian.PutUint64(word[:], math.Float64bits(p))
			if _, err := bw.Write(word[:]); err != nil {
				return err
			}
		}
		for _, key := range db.Keys {
			binary.LittleEndian.PutUint32(word[:4], key)
			if _, err := bw.Write(word[:4]); err != nil {
				return err
			}
		}
		for i := range db.Sets {
			if err := db.Sets[i].encodeTo(bw); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
}

// Read loads a database artifact, verifying the checksum and re-validating
// the structural invariants before handing it to the classifier.
func Read(path string) (*Database, error) {
	var db *Database
	err := artifact.ReadFile(path, artifact.KindDatabase, func(h artifact.Header, r io.Reader) error {
		br := bufio.NewReader(r)
		n := int(h.NumFiles)
		numKeys := int(h.NumKeys)

		d := &Database{
			Cfg:        h.Config(),
			LossyLevel: int(h.LossyLevel),
			TotalKmers: h.TotalKmers,
			Files:      make([]string, n),
			TaxIDs:     make([]uint64, n),
			PValues:    make([]float64, n),
			Keys:       make([]uint32, numKeys),
			Sets:       make([]MembershipSet, numKeys),
		}

		var word [8]byte
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(br, word[:2]); err != nil {
				return err
			}
			name := make([]byte, binary.LittleEndian.Uint16(word[:2]))
			if _, err := io.ReadFull(br, name); err != nil {
				return err
			}
			d.Files[i] = string(name)
			if _, err := io.ReadFull(br, word[:]); err != nil {
				return err
			}
			d.TaxIDs[i] = binary.LittleEndian.Uint64(word[:])
		}
		for i := range d.PValues {
			if _, err := io.ReadFull(br, word[:]); err != nil {
				return err
			}
			d.PValues[i] = math.Float64frombits(binary.LittleEndian.Uint64(word[:]))
		}
		for i := range d.Keys {
			if _, err := io.ReadFull(br, word[:4]); err != nil {
				return err
			}
			d.Keys[i] = binary.LittleEndian.Uint32(word[:4])
		}
		for i := range d.Sets {
			set, err := decodeFrom(br)
			if err != nil {
				return fmt.Errorf("membership set %d: %w", i, err)
			}
			d.Sets[i] = set
		}
		db = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := db.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}
