package stats

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kolkov/upcc/internal/chunk"
)

// fillChunks packs the rows (row-major) into chunks of the given
// height; the last chunk may be partial.
func fillChunks(rows [][]float64, perChunk int) []*chunk.Chunk[float64] {
	var chunks []*chunk.Chunk[float64]
	var cur *chunk.Chunk[float64]
	for _, row := range rows {
		if cur == nil {
			cur = chunk.New[float64](perChunk, len(row))
		}
		for _, v := range row {
			cur.PushBack(v)
		}
		if cur.Full() {
			chunks = append(chunks, cur)
			cur = nil
		}
	}
	if cur != nil && !cur.Empty() {
		chunks = append(chunks, cur)
	}
	return chunks
}

func randomRows(rng *rand.Rand, n, cols int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, cols)
		for j := range rows[i] {
			rows[i][j] = rng.Float64()*200 - 100
		}
	}
	return rows
}

// twoPassPCC is the naive two-pass reference: mean first, then
// covariance and variances.
func twoPassPCC(rows [][]float64, i, j int) float64 {
	n := float64(len(rows))
	var mi, mj float64
	for _, r := range rows {
		mi += r[i]
		mj += r[j]
	}
	mi /= n
	mj /= n
	var cov, vi, vj float64
	for _, r := range rows {
		di, dj := r[i]-mi, r[j]-mj
		cov += di * dj
		vi += di * di
		vj += dj * dj
	}
	if vi == 0 || vj == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vi*vj)
}

func TestMultiColumnAgreesWithReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	tests := []struct {
		name     string
		rows     int
		cols     int
		perChunk int
	}{
		{"small", 10, 3, 4},
		{"one row per chunk", 25, 4, 1},
		{"chunk larger than input", 7, 5, 100},
		{"many rows", 1000, 6, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := randomRows(rng, tt.rows, tt.cols)
			acc := NewMultiColumn[float64](tt.cols)
			for _, c := range fillChunks(rows, tt.perChunk) {
				acc.Accumulate(c)
			}
			table := acc.Partials()

			idx := 0
			for i := 0; i < tt.cols-1; i++ {
				for j := i + 1; j < tt.cols; j++ {
					got := table[idx].Finalize()
					want := twoPassPCC(rows, i, j)
					if math.Abs(got-want) > 1e-6 {
						t.Errorf("pair (%d,%d): got %v, want %v", i, j, got, want)
					}
					idx++
				}
			}
		})
	}
}

func TestNaiveAndEfficientAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 17))
	rows := randomRows(rng, 200, 5)
	chunks := fillChunks(rows, 33)

	fast := NewMultiColumn[float64](5)
	slow := NewPerPair[float64](5)
	for _, c := range chunks {
		fast.Accumulate(c)
		slow.Accumulate(c)
	}

	ft, st := fast.Partials(), slow.Partials()
	if len(ft) != len(st) {
		t.Fatalf("table sizes differ: %d vs %d", len(ft), len(st))
	}
	for i := range ft {
		if ft[i].Count != st[i].Count {
			t.Errorf("pair %d: counts differ: %d vs %d", i, ft[i].Count, st[i].Count)
		}
		if math.Abs(ft[i].Finalize()-st[i].Finalize()) > 1e-9 {
			t.Errorf("pair %d: %v vs %v", i, ft[i].Finalize(), st[i].Finalize())
		}
	}
}

func TestPartitionInvariance(t *testing.T) {
	// the field-wise sum of tables accumulated over an arbitrary
	// partition of the rows must match a single accumulator over the
	// concatenation
	rng := rand.New(rand.NewPCG(23, 29))
	rows := randomRows(rng, 300, 4)

	whole := NewMultiColumn[float64](4)
	for _, c := range fillChunks(rows, 50) {
		whole.Accumulate(c)
	}
	want := whole.Partials()

	for _, split := range []int{1, 7, 150, 299} {
		a := NewMultiColumn[float64](4)
		b := NewMultiColumn[float64](4)
		for _, c := range fillChunks(rows[:split], 50) {
			a.Accumulate(c)
		}
		for _, c := range fillChunks(rows[split:], 50) {
			b.Accumulate(c)
		}
		got := a.Partials()
		got.Merge(b.Partials())

		for i := range want {
			if got[i].Count != want[i].Count {
				t.Errorf("split %d, pair %d: count %d, want %d", split, i, got[i].Count, want[i].Count)
			}
			if math.Abs(got[i].Finalize()-want[i].Finalize()) > 1e-9 {
				t.Errorf("split %d, pair %d: %v, want %v", split, i, got[i].Finalize(), want[i].Finalize())
			}
		}
	}
}

func TestAccumulateSkipsEmptyChunk(t *testing.T) {
	acc := NewMultiColumn[float64](3)
	acc.Accumulate(chunk.New[float64](10, 3))
	for i, p := range acc.Partials() {
		if p.Count != 0 {
			t.Errorf("pair %d: Count = %d after empty chunk, want 0", i, p.Count)
		}
	}
}

func TestAccumulateIgnoresPartialRow(t *testing.T) {
	// a chunk holding one complete row and one half row: only the
	// complete row counts
	c := chunk.New[float64](2, 2)
	c.PushBack(1)
	c.PushBack(2)
	c.PushBack(3) // half of row 1

	acc := NewMultiColumn[float64](2)
	acc.Accumulate(c)
	p := acc.Partials()[0]
	if p.Count != 1 {
		t.Fatalf("Count = %d, want 1", p.Count)
	}
	if p.Sum1 != 1 || p.Sum2 != 2 || p.SumProd != 2 {
		t.Errorf("partial = %+v, want sums over the single complete row", p)
	}
}

func TestSinglePrecision(t *testing.T) {
	rows := [][]float32{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	c := chunk.New[float32](4, 2)
	for _, r := range rows {
		c.PushBack(r[0])
		c.PushBack(r[1])
	}
	acc := NewMultiColumn[float32](2)
	acc.Accumulate(c)
	got := acc.Partials()[0].Finalize()
	if math.Abs(float64(got)-1) > 1e-3 {
		t.Errorf("Finalize() = %v, want 1 within 1e-3", got)
	}
}
