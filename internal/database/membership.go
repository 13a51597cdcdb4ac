// internal/database/membership.go
package database

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Run is a contiguous half-open interval [Start, End) of ordered file
// positions.
type Run struct {
	Start, End uint32
}

// MembershipSet is the set of ordered file positions containing one k-mer,
// held as sorted, non-overlapping, maximally-merged runs. Because the
// ordering stage places similar files adjacently, these runs are short lists
// even for k-mers shared by many files; on disk a set that refuses to
// cluster falls back to an explicit position list when that is smaller (see
// encodeTo).
type MembershipSet struct {
	runs []Run
}

// append adds a position. Positions must arrive in strictly increasing
// order, which the builder guarantees by accumulating files in ordered
// sequence.
func (s *MembershipSet) append(pos uint32) {
	if n := len(s.runs); n > 0 && s.runs[n-1].End == pos {
		s.runs[n-1].End = pos + 1
		return
	}
	s.runs = append(s.runs, Run{Start: pos, End: pos + 1})
}

// Cardinality is the number of member positions.
func (s *MembershipSet) Cardinality() uint64 {
	var n uint64
	for _, r := range s.runs {
		n += uint64(r.End - r.Start)
	}
	return n
}

// Contains reports membership of a single position.
func (s *MembershipSet) Contains(pos uint32) bool {
	for _, r := range s.runs {
		if pos < r.Start {
			return false
		}
		if pos < r.End {
			return true
		}
	}
	return false
}

// Positions expands the set into a sorted slice. Test/debug helper.
func (s *MembershipSet) Positions() []uint32 {
	out := make([]uint32, 0, s.Cardinality())
	for _, r := range s.runs {
		for p := r.Start; p < r.End; p++ {
			out = append(out, p)
		}
	}
	return out
}

// AddHits increments the per-file hit counters for every member position.
// This is the classifier's inner loop.
func (s *MembershipSet) AddHits(hits []float64) {
	for _, r := range s.runs {
		for p := r.Start; p < r.End; p++ {
			hits[p]++
		}
	}
}

// Widen merges runs separated by a gap of at most level positions, marking
// the gap positions as members. The result is always a superset of the
// original (monotonic widening): classification may gain false file hits but
// can never lose a true one. Widening never reaches outside [first, last]
// member, so no out-of-range position can appear.
func (s *MembershipSet) Widen(level int) MembershipSet {
	if len(s.runs) == 0 {
		return MembershipSet{}
	}
	widened := make([]Run, 0, len(s.runs))
	cur := s.runs[0]
	for _, r := range s.runs[1:] {
		if uint64(r.Start)-uint64(cur.End) <= uint64(level) {
			cur.End = r.End
			continue
		}
		widened = append(widened, cur)
		cur = r
	}
	widened = append(widened, cur)
	return MembershipSet{runs: widened}
}

// validate checks run ordering and the position bound.
func (s *MembershipSet) validate(numFiles uint32) error {
	prevEnd := uint32(0)
	for i, r := range s.runs {
		if r.Start >= r.End {
			return fmt.Errorf("membership run %d is empty or inverted [%d,%d)", i, r.Start, r.End)
		}
		if i > 0 && r.Start <= prevEnd {
			return fmt.Errorf("membership run %d overlaps or touches its predecessor", i)
		}
		if r.End > numFiles {
			return fmt.Errorf("membership position %d out of range [0,%d)", r.End-1, numFiles)
		}
		prevEnd = r.End
	}
	return nil
}

// On-disk membership encodings.
const (
	encRuns   = 0 // count pairs of (start, end)
	encSparse = 1 // count explicit positions
)

// encodeTo writes the set in whichever representation is smaller: interval
// runs (two words per run) or an explicit position list (one word per
// member).
func (s *MembershipSet) encodeTo(w *bufio.Writer) error {
	card := s.Cardinality()
	var kind byte = encRuns
	count := uint32(len(s.runs))
	if card < uint64(len(s.runs))*2 {
		kind = encSparse
		count = uint32(card)
	}
	if err := w.WriteByte(kind); err != nil {
		return err
	}
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], count)
	if _, err := w.Write(word[:]); err != nil {
		return err
	}
	writeWord := func(v uint32) error {
		binary.LittleEndian.PutUint32(word[:], v)
		_, err := w.Write(word[:])
		return err
	}
	if kind == encRuns {
		for _, r := range s.runs {
			if err := writeWord(r.Start); err != nil {
				return err
			}
			if err := writeWord(r.End); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range s.runs {
		for p := r.Start; p < r.End; p++ {
			if err := writeWord(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeFrom reads one encoded set. Sparse positions are re-merged into
// runs, so the in-memory form is representation-independent.
func decodeFrom(r *bufio.Reader) (MembershipSet, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return MembershipSet{}, err
	}
	var word [4]byte
	if _, err := io.ReadFull(r, word[:]); err != nil {
		return MembershipSet{}, err
	}
	count := binary.LittleEndian.Uint32(word[:])
	readWord := func() (uint32, error) {
		if _, err := io.ReadFull(r, word[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(word[:]), nil
	}
	var s MembershipSet
	switch kind {
	case encRuns:
		s.runs = make([]Run, count)
		for i := range s.runs {
			start, err := readWord()
			if err != nil {
				return MembershipSet{}, err
			}
			end, err := readWord()
			if err != nil {
				return MembershipSet{}, err
			}
			s.runs[i] = Run{Start: start, End: end}
		}
	case encSparse:
		for i := uint32(0); i < count; i++ {
			pos, err := readWord()
			if err != nil {
				return MembershipSet{}, err
			}
			s.append(pos)
		}
	default:
		return MembershipSet{}, fmt.Errorf("unknown membership encoding %d", kind)
	}
	return s, nil
}
