// internal/distance/matrix.go
package distance

import "fmt"

// Matrix is a symmetric N×N dissimilarity matrix with a zero diagonal,
// stored as the condensed lower triangle: cell (i,j), i>j, lives at
// i*(i-1)/2 + j. Cells are written once during estimation and never re-read
// while being computed, so row-partitioned workers need no locking.
type Matrix struct {
	n     int
	cells []float64
}

// NewMatrix allocates an all-zero N×N matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, cells: make([]float64, n*(n-1)/2)}
}

// N is the number of reference files.
func (m *Matrix) N() int { return m.n }

func (m *Matrix) index(i, j int) int {
	if j > i {
		i, j = j, i
	}
	return i*(i-1)/2 + j
}

// At returns the distance between files i and j.
func (m *Matrix) At(i, j int) float64 {
	if i == j {
		return 0
	}
	return m.cells[m.index(i, j)]
}

func (m *Matrix) set(i, j int, v float64) {
	m.cells[m.index(i, j)] = v
}

// Validate checks that every cell holds a distance in [0,1]. Symmetry and
// the zero diagonal hold by construction of the condensed layout.
func (m *Matrix) Validate() error {
	for idx, v := range m.cells {
		if v < 0 || v > 1 {
			return fmt.Errorf("distance cell %d out of range [0,1]: %g", idx, v)
		}
	}
	return nil
}
