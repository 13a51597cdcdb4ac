// internal/stats/binom.go
//
// Binomial tail probabilities for the classifier's significance test,
// computed and carried in log10 space. Hit-count p-values routinely fall far
// below the smallest positive float64; log space covers the whole usable
// range with plain float64s.
package stats

import "math"

const ln10 = math.Ln10

// LogSF returns log10 of the survival function P(X > x) for X ~ Binomial(n, p).
// By convention LogSF(p, n, x) for x >= n is -Inf (an observation of every
// trial succeeding is beyond any finite significance), and x < 0 gives 0
// (probability 1).
func LogSF(p float64, n, x int) float64 {
	if x < 0 {
		return 0
	}
	if x >= n || p >= 1 {
		if p >= 1 && x < n {
			return 0
		}
		return math.Inf(-1)
	}
	if p <= 0 {
		return math.Inf(-1)
	}

	// log-sum-exp over the pmf terms i = x+1..n, all in natural log first.
	lp := math.Log(p)
	lq := math.Log1p(-p)
	lgN, _ := math.Lgamma(float64(n + 1))

	terms := make([]float64, 0, n-x)
	for i := x + 1; i <= n; i++ {
		lgI, _ := math.Lgamma(float64(i + 1))
		lgNI, _ := math.Lgamma(float64(n - i + 1))
		terms = append(terms, lgN-lgI-lgNI+float64(i)*lp+float64(n-i)*lq)
	}

	maxT := math.Inf(-1)
	for _, t := range terms {
		if t > maxT {
			maxT = t
		}
	}
	sum := 0.0
	for _, t := range terms {
		sum += math.Exp(t - maxT)
	}
	return (maxT + math.Log(sum)) / ln10
}

// LookupTable precomputes log10 survival probabilities for every file and
// every possible hit count 0..nFixed. Entry [file][x] is
// log10 P(X > x | X ~ Bin(nFixed, p_file)). The classifier rescales a read's
// observed hit count onto the fixed trial count and indexes this table, so
// the expensive tail sums happen once per database load instead of once per
// read.
func LookupTable(pValues []float64, nFixed int) [][]float64 {
	table := make([][]float64, len(pValues))
	for file, p := range pValues {
		row := make([]float64, nFixed+1)
		for x := 0; x <= nFixed; x++ {
			row[x] = LogSF(p, nFixed, x)
		}
		table[file] = row
	}
	return table
}
