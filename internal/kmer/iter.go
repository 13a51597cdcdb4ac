// internal/kmer/iter.go
package kmer

// Two-bit base codes: A=0, C=1, G=2, T=3. Everything else is invalid and
// resets the current window.
var baseCode = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = 0, 0
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()

// complement of a 2-bit base code.
var complement = [4]uint64{3, 2, 1, 0}

// Iter walks a sequence and yields canonical k-mers that pass the syncmer
// filter, suppressing consecutive duplicates. The same sequence and Config
// always yield the same k-mers, which is what lets later stages re-derive
// them instead of persisting them.
type Iter struct {
	seq           []byte
	pos           int
	curr          uint64
	rc            uint64
	kmerMask      uint64
	smerMask      uint64
	firstShift    uint // shift that places a base at the leftmost slot
	k             int
	smerDiff      int // k - s; 0 disables the syncmer filter
	syncmerOffset int
	last          uint64
	hasLast       bool
	started       bool
}

// NewIter returns an iterator over the canonical k-mers of seq under cfg.
// cfg must be valid (see Config.Validate).
func NewIter(seq []byte, cfg Config) *Iter {
	return &Iter{
		seq:           seq,
		kmerMask:      (1 << (2 * uint(cfg.K))) - 1,
		smerMask:      (1 << (2 * uint(cfg.SmerLen))) - 1,
		firstShift:    uint(cfg.K-1) * 2,
		k:             cfg.K,
		smerDiff:      cfg.K - cfg.SmerLen,
		syncmerOffset: cfg.SyncmerOffset,
	}
}

// Next returns the next canonical k-mer, or false when the sequence is
// exhausted. Sequences shorter than k yield nothing.
func (it *Iter) Next() (uint32, bool) {
	if !it.started {
		it.started = true
		return it.initNext()
	}
	return it.scanNext()
}

// initNext rebuilds a full k-base window from scratch, restarting whenever an
// invalid base is hit.
func (it *Iter) initNext() (uint32, bool) {
	var buf uint64
	filled := 0
	for it.pos < len(it.seq) {
		code := baseCode[it.seq[it.pos]]
		it.pos++
		if code < 0 {
			buf = 0
			filled = 0
			continue
		}
		buf = (buf << 2) | uint64(code)
		filled++
		if filled == it.k {
			it.curr = buf & it.kmerMask
			it.rc = revComp(it.curr, it.k, it.kmerMask)
			if kmer, ok := it.emit(); ok {
				return kmer, true
			}
			return it.scanNext()
		}
	}
	return 0, false
}

// scanNext slides the existing window one base at a time.
func (it *Iter) scanNext() (uint32, bool) {
	for it.pos < len(it.seq) {
		code := baseCode[it.seq[it.pos]]
		it.pos++
		if code < 0 {
			return it.initNext()
		}
		it.curr = ((it.curr << 2) | uint64(code)) & it.kmerMask
		it.rc = (it.rc >> 2) | (complement[code] << it.firstShift)
		if kmer, ok := it.emit(); ok {
			return kmer, true
		}
	}
	return 0, false
}

// emit applies the syncmer filter and duplicate suppression to the current
// window.
func (it *Iter) emit() (uint32, bool) {
	canonical := it.curr
	if it.rc < canonical {
		canonical = it.rc
	}
	if !it.isSyncmer(canonical) {
		return 0, false
	}
	if it.hasLast && canonical == it.last {
		return 0, false
	}
	it.last = canonical
	it.hasLast = true
	return uint32(canonical), true
}

// isSyncmer reports whether the minimal s-mer of the canonical k-mer sits at
// the configured offset (closed syncmer test). Ties go to the leftmost
// minimal s-mer.
func (it *Iter) isSyncmer(canonical uint64) bool {
	if it.smerDiff == 0 {
		return true
	}
	minIndex := 0
	minSmer := (canonical >> (uint(it.smerDiff) << 1)) & it.smerMask
	for i := 1; i <= it.smerDiff; i++ {
		smer := (canonical >> (uint(it.smerDiff-i) << 1)) & it.smerMask
		if smer < minSmer {
			minSmer = smer
			minIndex = i
		}
	}
	return minIndex == it.syncmerOffset
}

// revComp reverses a packed k-mer onto the opposite strand.
func revComp(kmer uint64, k int, mask uint64) uint64 {
	comp := (^kmer) & mask
	var buf uint64
	for i := 0; i < k; i++ {
		buf = (buf << 2) | (comp & 3)
		comp >>= 2
	}
	return buf
}

// RevComp is revComp for callers outside the package (tests, tooling).
func RevComp(kmer uint32, k int) uint32 {
	mask := uint64(1)<<(2*uint(k)) - 1
	return uint32(revComp(uint64(kmer), k, mask))
}

// Extract collects every canonical k-mer of seq into a slice. Convenience
// for tests and small inputs; large inputs should drive Iter directly.
func Extract(seq []byte, cfg Config) []uint32 {
	var out []uint32
	it := NewIter(seq, cfg)
	for {
		kmer, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, kmer)
	}
}
