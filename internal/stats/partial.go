// Package stats accumulates the sufficient statistics of the pairwise
// Pearson correlation coefficient over column-major chunks.
package stats

import (
	"math"

	"github.com/kolkov/upcc/internal/chunk"
)

// Partial holds the sufficient statistics for the Pearson correlation
// of one column pair. Addition is field-wise, commutative and
// associative, so partials accumulated over arbitrary partitions of the
// input rows can be merged in any order; the zero value is the
// identity.
type Partial[T chunk.Scalar] struct {
	Sum1    T
	Sum2    T
	SumSq1  T
	SumSq2  T
	SumProd T
	Count   int64
}

// Add folds q into p field-wise.
func (p *Partial[T]) Add(q Partial[T]) {
	p.Sum1 += q.Sum1
	p.Sum2 += q.Sum2
	p.SumSq1 += q.SumSq1
	p.SumSq2 += q.SumSq2
	p.SumProd += q.SumProd
	p.Count += q.Count
}

// Finalize derives the correlation coefficient from the accumulated
// statistics. The single-pass formulation can produce a slightly
// negative denominator through catastrophic cancellation; that is
// clamped to zero, and a zero denominator (either column has zero
// variance, or no rows were seen) yields NaN.
func (p Partial[T]) Finalize() T {
	n := T(p.Count)
	num := n*p.SumProd - p.Sum1*p.Sum2
	den2 := (n*p.SumSq1 - p.Sum1*p.Sum1) * (n*p.SumSq2 - p.Sum2*p.Sum2)
	if den2 <= 0 {
		return T(math.NaN())
	}
	return num / T(math.Sqrt(float64(den2)))
}

// Table is a flat sequence of per-pair partials for all unordered
// column pairs (c1, c2), c1 < c2, in lexicographic order:
// (0,1), (0,2), …, (0,C−1), (1,2), …, (C−2,C−1).
type Table[T chunk.Scalar] []Partial[T]

// NewTable returns a zeroed table sized for cols columns.
func NewTable[T chunk.Scalar](cols int) Table[T] {
	return make(Table[T], PairCount(cols))
}

// PairCount returns the number of unordered column pairs.
func PairCount(cols int) int {
	return cols * (cols - 1) / 2
}

// PairIndex returns the table position of pair (i, j), i < j.
func PairIndex(i, j, cols int) int {
	return i*cols - i*(i+1)/2 + j - i - 1
}

// Merge adds other into t field-wise. The tables must come from
// accumulators built over the same column count.
func (t Table[T]) Merge(other Table[T]) {
	if len(t) != len(other) {
		panic("stats: merging tables of different sizes")
	}
	for i := range t {
		t[i].Add(other[i])
	}
}
