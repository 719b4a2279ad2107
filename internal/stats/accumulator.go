package stats

import (
	"github.com/ajroetker/go-highway/hwy"

	"github.com/kolkov/upcc/internal/chunk"
)

// Accumulator folds chunks into Pearson sufficient statistics. The
// pipeline runs one accumulator per worker; their tables are merged
// after join. MultiColumn is the production implementation, PerPair the
// reference one.
type Accumulator[T chunk.Scalar] interface {
	// Accumulate folds all filled rows of the chunk into the state.
	Accumulate(c *chunk.Chunk[T])
	// Partials assembles the accumulated state into a pair table.
	Partials() Table[T]
}

// MultiColumn accumulates per-column sums and sums-of-squares plus
// per-pair sums-of-products in flat arrays, deferring the assembly of
// Partial records to the end. Per chunk this walks every column once
// and every column pair once, always on unit-stride loads.
type MultiColumn[T chunk.Scalar] struct {
	cols  int
	sum   []T
	sumSq []T
	cross []T // lexicographic pair order
	rows  int64
}

// NewMultiColumn returns an accumulator for cols columns.
func NewMultiColumn[T chunk.Scalar](cols int) *MultiColumn[T] {
	return &MultiColumn[T]{
		cols:  cols,
		sum:   make([]T, cols),
		sumSq: make([]T, cols),
		cross: make([]T, PairCount(cols)),
	}
}

// Accumulate folds the chunk's filled rows into the state.
func (a *MultiColumn[T]) Accumulate(cnk *chunk.Chunk[T]) {
	r := cnk.Rows()
	if r == 0 {
		return
	}
	for c := 0; c < a.cols; c++ {
		col := cnk.Column(c)[:r]
		s, q := sumAndSumSq(col)
		a.sum[c] += s
		a.sumSq[c] += q
	}
	idx := 0
	for i := 0; i < a.cols-1; i++ {
		ci := cnk.Column(i)[:r]
		for j := i + 1; j < a.cols; j++ {
			a.cross[idx] += dot(ci, cnk.Column(j)[:r])
			idx++
		}
	}
	a.rows += int64(r)
}

// Partials assembles the flat state into per-pair records.
func (a *MultiColumn[T]) Partials() Table[T] {
	t := NewTable[T](a.cols)
	idx := 0
	for i := 0; i < a.cols-1; i++ {
		for j := i + 1; j < a.cols; j++ {
			t[idx] = Partial[T]{
				Sum1:    a.sum[i],
				Sum2:    a.sum[j],
				SumSq1:  a.sumSq[i],
				SumSq2:  a.sumSq[j],
				SumProd: a.cross[idx],
				Count:   a.rows,
			}
			idx++
		}
	}
	return t
}

// sumAndSumSq computes Σv and Σv² over a column in one pass.
func sumAndSumSq[T chunk.Scalar](col []T) (T, T) {
	vs := hwy.Zero[T]()
	vq := hwy.Zero[T]()
	lanes := vs.NumLanes()

	var k int
	for ; k+lanes <= len(col); k += lanes {
		v := hwy.Load(col[k:])
		vs = hwy.Add(vs, v)
		vq = hwy.MulAdd(v, v, vq)
	}

	// reduce and add scalar tail
	s := hwy.ReduceSum(vs)
	q := hwy.ReduceSum(vq)
	for ; k < len(col); k++ {
		s += col[k]
		q += col[k] * col[k]
	}
	return s, q
}

// dot computes Σ a[k]·b[k] over two equal-length columns.
func dot[T chunk.Scalar](a, b []T) T {
	vp := hwy.Zero[T]()
	lanes := vp.NumLanes()

	var k int
	for ; k+lanes <= len(a); k += lanes {
		vp = hwy.MulAdd(hwy.Load(a[k:]), hwy.Load(b[k:]), vp)
	}

	p := hwy.ReduceSum(vp)
	for ; k < len(a); k++ {
		p += a[k] * b[k]
	}
	return p
}
