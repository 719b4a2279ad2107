package stats

import "github.com/kolkov/upcc/internal/chunk"

// PerPair is the straightforward accumulator: one Partial per column
// pair, updated directly from the raw columns on every chunk. It
// revisits each column once per pair instead of once per chunk, which
// makes it the slow path — and the reference the fast path is checked
// against.
type PerPair[T chunk.Scalar] struct {
	cols     int
	partials Table[T]
}

// NewPerPair returns a reference accumulator for cols columns.
func NewPerPair[T chunk.Scalar](cols int) *PerPair[T] {
	return &PerPair[T]{
		cols:     cols,
		partials: NewTable[T](cols),
	}
}

// Accumulate folds the chunk's filled rows into every pair's partial.
func (a *PerPair[T]) Accumulate(cnk *chunk.Chunk[T]) {
	r := cnk.Rows()
	if r == 0 {
		return
	}
	idx := 0
	for i := 0; i < a.cols-1; i++ {
		ci := cnk.Column(i)[:r]
		for j := i + 1; j < a.cols; j++ {
			a.partials[idx].Add(pairPartial(ci, cnk.Column(j)[:r]))
			idx++
		}
	}
}

// Partials returns the accumulated table.
func (a *PerPair[T]) Partials() Table[T] {
	return a.partials
}

// pairPartial computes the sufficient statistics of one column pair
// over one chunk with plain scalar loops.
func pairPartial[T chunk.Scalar](a, b []T) Partial[T] {
	var p Partial[T]
	for k := range a {
		x, y := a[k], b[k]
		p.Sum1 += x
		p.Sum2 += y
		p.SumSq1 += x * x
		p.SumSq2 += y * y
		p.SumProd += x * y
	}
	p.Count = int64(len(a))
	return p
}
