// internal/database/builder.go
package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/twotwotwo/sorts"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

// Builder accumulates the k-mer → membership-set index. The k-mer key space
// is partitioned into contiguous shards, one per worker: during
// accumulation each shard only ever touches keys in its own range, so the
// workers share nothing and need no locks. The merge after accumulation is
// pure concatenation (shard ranges are disjoint and ascending) followed by a
// global sort.
type Builder struct {
	cfg      kmer.Config
	numFiles uint32
	nextPos  uint32
	shards   []*shard
}

// Key bounds are uint64 because k=16 fills the entire uint32 range.
type shard struct {
	lo, hi uint64 // key range [lo, hi)
	sets   map[uint32]*MembershipSet
}

// NewBuilder prepares shardCount shards covering the packed k-mer space of
// cfg. numFiles is the width of every membership set.
func NewBuilder(cfg kmer.Config, numFiles int, shardCount int) *Builder {
	if shardCount < 1 {
		shardCount = 1
	}
	spaceTop := uint64(1) << (2 * uint(cfg.K)) // exclusive upper bound of packed keys
	shards := make([]*shard, shardCount)
	step := spaceTop / uint64(shardCount)
	for i := range shards {
		lo := uint64(i) * step
		hi := lo + step
		if i == shardCount-1 {
			hi = spaceTop
		}
		shards[i] = &shard{lo: lo, hi: hi, sets: make(map[uint32]*MembershipSet)}
	}
	return &Builder{cfg: cfg, numFiles: uint32(numFiles), shards: shards}
}

// AddFile marks the next ordered position as a member of every k-mer in bm.
// Files must be added in ordered sequence (position 0 first); this is what
// keeps each membership set's positions strictly increasing. The shard
// workers run concurrently within the call, each iterating only its own key
// range of the bitmap.
func (b *Builder) AddFile(bm *roaring.Bitmap) {
	pos := b.nextPos
	b.nextPos++

	var wg sync.WaitGroup
	wg.Add(len(b.shards))
	for _, sh := range b.shards {
		go func(sh *shard) {
			defer wg.Done()
			it := bm.Iterator()
			it.AdvanceIfNeeded(uint32(sh.lo))
			for it.HasNext() {
				key := it.Next()
				if uint64(key) >= sh.hi {
					return
				}
				set := sh.sets[key]
				if set == nil {
					set = &MembershipSet{}
					sh.sets[key] = set
				}
				set.append(pos)
			}
		}(sh)
	}
	wg.Wait()
}

// kmerTable sorts the concatenated shard contents by key. Implements the
// parallel radix sort interface of twotwotwo/sorts.
type kmerTable struct {
	keys []uint32
	sets []MembershipSet
}

func (t *kmerTable) Len() int           { return len(t.keys) }
func (t *kmerTable) Less(i, j int) bool { return t.keys[i] < t.keys[j] }
func (t *kmerTable) Key(i int) uint64   { return uint64(t.keys[i]) }
func (t *kmerTable) Swap(i, j int) {
	t.keys[i], t.keys[j] = t.keys[j], t.keys[i]
	t.sets[i], t.sets[j] = t.sets[j], t.sets[i]
}

// Finalize merges the shards, sorts the key table, validates the structural
// invariants, and produces the Database. The builder must not be reused
// afterwards.
func (b *Builder) Finalize(entries []taxmap.Entry) (*Database, error) {
	if b.nextPos == 0 || len(entries) == 0 {
		return nil, fmt.Errorf("declared reference set is empty")
	}
	if int(b.nextPos) != len(entries) {
		return nil, fmt.Errorf("accumulated %d files but ordering names %d", b.nextPos, len(entries))
	}

	total := 0
	for _, sh := range b.shards {
		total += len(sh.sets)
	}
	table := &kmerTable{
		keys: make([]uint32, 0, total),
		sets: make([]MembershipSet, 0, total),
	}
	for _, sh := range b.shards {
		for key, set := range sh.sets {
			table.keys = append(table.keys, key)
			table.sets = append(table.sets, *set)
		}
		sh.sets = nil // release as we go
	}
	sorts.ByUint64(table)
	if !sort.IsSorted(table) {
		return nil, fmt.Errorf("key table failed to sort")
	}

	files := make([]string, len(entries))
	taxIDs := make([]uint64, len(entries))
	for i, e := range entries {
		files[i] = e.Path
		taxIDs[i] = e.TaxID
	}

	db := &Database{
		Cfg:        b.cfg,
		TotalKmers: kmer.SpaceSize(b.cfg),
		Files:      files,
		TaxIDs:     taxIDs,
		Keys:       table.keys,
		Sets:       table.sets,
	}
	db.recomputePValues()
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}
