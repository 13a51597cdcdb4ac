// internal/database/lossy.go
package database

import "fmt"

// Lossy derives a coarsened copy of the database at the given level: every
// membership set has its runs merged across gaps of at most `level`
// positions. The copy shares nothing mutable with the receiver, so exact and
// lossy artifacts stay independently reproducible. Key order, key set, and
// the lookup contract are unchanged, so the classifier treats both uniformly.
//
// Each widened set is a superset of its exact counterpart, never a subset:
// the trade is storage (and false file hits) for size, never lost true hits.
func (db *Database) Lossy(level int) (*Database, error) {
	if level < 1 {
		return nil, fmt.Errorf("lossy level must be >= 1, got %d", level)
	}
	if db.LossyLevel > 0 {
		return nil, fmt.Errorf("database is already lossy (level %d); recompress from the exact database", db.LossyLevel)
	}

	out := &Database{
		Cfg:        db.Cfg,
		LossyLevel: level,
		TotalKmers: db.TotalKmers,
		Files:      db.Files,
		TaxIDs:     db.TaxIDs,
		Keys:       db.Keys,
		Sets:       make([]MembershipSet, len(db.Sets)),
	}
	for i := range db.Sets {
		out.Sets[i] = db.Sets[i].Widen(level)
	}
	// Widening grows memberships; the null model follows the stored sets.
	out.recomputePValues()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
