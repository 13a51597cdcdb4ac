// internal/kmer/config.go
package kmer

import "fmt"

// Supported k-mer lengths. Keys are packed two bits per base into a uint32,
// so k can never exceed 16.
const (
	MinK     = 14
	MaxK     = 16
	DefaultK = 15

	DefaultSmerLen       = 9
	DefaultSyncmerOffset = 3
)

// Config fixes the extraction parameters for one pipeline run. Every stage
// that re-derives k-mers from raw sequence must use the identical Config the
// artifact was produced with.
type Config struct {
	K             int // k-mer length
	SmerLen       int // s-mer length used by the syncmer filter; == K disables subsampling
	SyncmerOffset int // required position of the minimal s-mer within the k-mer
}

func (c Config) Validate() error {
	if c.K < MinK || c.K > MaxK {
		return fmt.Errorf("k-mer length %d not supported (must be %d..%d)", c.K, MinK, MaxK)
	}
	if c.SmerLen < 1 || c.SmerLen > c.K {
		return fmt.Errorf("s-mer length %d must be in 1..%d", c.SmerLen, c.K)
	}
	if c.SyncmerOffset < 0 || c.SyncmerOffset > c.K-c.SmerLen {
		return fmt.Errorf("syncmer offset %d must be in 0..%d", c.SyncmerOffset, c.K-c.SmerLen)
	}
	return nil
}

// Subsampling reports whether the syncmer filter is active.
func (c Config) Subsampling() bool { return c.SmerLen < c.K }

func (c Config) String() string {
	if !c.Subsampling() {
		return fmt.Sprintf("k=%d (no subsampling)", c.K)
	}
	return fmt.Sprintf("k=%d s=%d t=%d", c.K, c.SmerLen, c.SyncmerOffset)
}

// Equal is the configuration-mismatch check used by downstream stages.
func (c Config) Equal(other Config) bool {
	if !c.Subsampling() && !other.Subsampling() {
		return c.K == other.K
	}
	return c == other
}
