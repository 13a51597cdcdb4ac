// internal/kmer/space.go
package kmer

// SpaceSize estimates the number of distinct canonical k-mers that the
// extractor can ever emit under cfg. It calibrates the null model of the
// classifier (a file's hit probability is its indexed k-mer count over this
// value).
//
// The canonical count is exact: of the 4^k k-mers, the reverse-complement
// palindromes (possible only for even k, 4^(k/2) of them) are their own
// canonical form and every other k-mer pairs up with its opposite strand.
// The syncmer filter accepts the k-mers whose minimal s-mer lands on one of
// the k-s+1 window positions, which is uniform over positions for random
// k-mers, so the canonical count is scaled by 1/(k-s+1).
func SpaceSize(cfg Config) uint64 {
	total := uint64(1) << (2 * uint(cfg.K)) // 4^k
	canonical := total / 2
	if cfg.K%2 == 0 {
		palindromes := uint64(1) << uint(cfg.K) // 4^(k/2)
		canonical += palindromes / 2
	}
	if !cfg.Subsampling() {
		return canonical
	}
	return canonical / uint64(cfg.K-cfg.SmerLen+1)
}
