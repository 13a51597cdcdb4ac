// internal/order/order.go
//
// Reference ordering: turn the pairwise distance matrix into a permutation
// that places similar files next to each other. Membership sets then cluster
// into contiguous position ranges, which is what makes the database's run
// compression effective. Finding the optimal linear arrangement is a
// shortest-Hamiltonian-path problem, so the stage settles for a
// deterministic greedy construction plus local refinement.
package order

import (
	"fmt"

	"github.com/trevor-schnegg/SKiM/internal/distance"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

// Greedy builds a permutation by nearest-neighbour chaining: start at file 0
// and repeatedly append the unvisited file closest to the last-placed one,
// breaking distance ties by the lowest original file index. Identical input
// always yields the identical permutation.
func Greedy(m *distance.Matrix) []int {
	n := m.N()
	if n == 0 {
		return nil
	}
	perm := make([]int, 0, n)
	visited := make([]bool, n)
	last := 0
	perm = append(perm, 0)
	visited[0] = true

	for len(perm) < n {
		best := -1
		bestDist := 0.0
		for candidate := 0; candidate < n; candidate++ {
			if visited[candidate] {
				continue
			}
			d := m.At(last, candidate)
			if best < 0 || d < bestDist {
				best = candidate
				bestDist = d
			}
		}
		perm = append(perm, best)
		visited[best] = true
		last = best
	}
	return perm
}

// TotalAdjacent is the objective: the sum of distances between consecutive
// files in the permutation.
func TotalAdjacent(m *distance.Matrix, perm []int) float64 {
	total := 0.0
	for p := 1; p < len(perm); p++ {
		total += m.At(perm[p-1], perm[p])
	}
	return total
}

// Refine improves a permutation in place by adjacent-swap passes: swap
// positions p and p+1 whenever doing so reduces the total adjacent distance.
// It stops when a full pass finds no improving swap or after maxPasses
// passes, whichever comes first.
func Refine(m *distance.Matrix, perm []int, maxPasses int) []int {
	n := len(perm)
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for p := 0; p+1 < n; p++ {
			// Edges touched by swapping positions p and p+1.
			a, b := perm[p], perm[p+1]
			var before, after float64
			if p > 0 {
				before += m.At(perm[p-1], a)
				after += m.At(perm[p-1], b)
			}
			if p+2 < n {
				before += m.At(b, perm[p+2])
				after += m.At(a, perm[p+2])
			}
			if after < before {
				perm[p], perm[p+1] = b, a
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return perm
}

// Validate checks that perm is a bijection over {0..n-1}. An ordering that
// fails this must never be persisted.
func Validate(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("ordering has %d positions for %d files", len(perm), n)
	}
	seen := make([]bool, n)
	for pos, file := range perm {
		if file < 0 || file >= n {
			return fmt.Errorf("ordering position %d holds out-of-range file index %d", pos, file)
		}
		if seen[file] {
			return fmt.Errorf("ordering assigns file index %d twice", file)
		}
		seen[file] = true
	}
	return nil
}

// Apply reorders file2taxid entries by the permutation: position p of the
// result is the entry of file perm[p].
func Apply(entries []taxmap.Entry, perm []int) []taxmap.Entry {
	out := make([]taxmap.Entry, len(perm))
	for pos, file := range perm {
		out[pos] = entries[file]
	}
	return out
}
