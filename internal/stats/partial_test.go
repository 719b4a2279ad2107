package stats

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestPartialAddIsCommutativeMonoid(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	randPartial := func() Partial[float64] {
		return Partial[float64]{
			Sum1:    rng.Float64() * 10,
			Sum2:    rng.Float64() * 10,
			SumSq1:  rng.Float64() * 100,
			SumSq2:  rng.Float64() * 100,
			SumProd: rng.Float64() * 100,
			Count:   rng.Int64N(1000),
		}
	}

	for trial := 0; trial < 20; trial++ {
		a, b, c := randPartial(), randPartial(), randPartial()

		ab := a
		ab.Add(b)
		ba := b
		ba.Add(a)
		if ab != ba {
			t.Fatalf("Add is not commutative: %+v != %+v", ab, ba)
		}

		abc := ab
		abc.Add(c)
		bc := b
		bc.Add(c)
		abc2 := a
		abc2.Add(bc)
		if abc != abc2 {
			t.Fatalf("Add is not associative: %+v != %+v", abc, abc2)
		}

		withZero := a
		withZero.Add(Partial[float64]{})
		if withZero != a {
			t.Fatalf("zero value is not the identity: %+v != %+v", withZero, a)
		}
	}
}

func TestFinalize(t *testing.T) {
	// partial over x = 1,3,5 and y = 2,4,6 (perfectly correlated)
	perfect := Partial[float64]{
		Sum1: 9, Sum2: 12,
		SumSq1: 35, SumSq2: 56,
		SumProd: 44, Count: 3,
	}
	if got := perfect.Finalize(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Finalize() = %v, want 1", got)
	}

	// x = 1,2,3 and y = 2,1,0 (perfectly anti-correlated)
	inverse := Partial[float64]{
		Sum1: 6, Sum2: 3,
		SumSq1: 14, SumSq2: 5,
		SumProd: 4, Count: 3,
	}
	if got := inverse.Finalize(); math.Abs(got+1) > 1e-12 {
		t.Errorf("Finalize() = %v, want -1", got)
	}

	// constant second column: zero variance, no defined correlation
	flat := Partial[float64]{
		Sum1: 6, Sum2: 0,
		SumSq1: 14, SumSq2: 0,
		SumProd: 0, Count: 4,
	}
	if got := flat.Finalize(); !math.IsNaN(got) {
		t.Errorf("Finalize() = %v for zero variance, want NaN", got)
	}

	// nothing accumulated
	if got := (Partial[float64]{}).Finalize(); !math.IsNaN(got) {
		t.Errorf("Finalize() = %v for empty partial, want NaN", got)
	}
}

func TestFinalizeClampsNegativeVariance(t *testing.T) {
	// sums crafted so n·Σx² − (Σx)² is a tiny negative number, as
	// catastrophic cancellation can produce
	p := Partial[float64]{
		Sum1: 3, Sum2: 3,
		SumSq1: math.Nextafter(3, 0), SumSq2: 3,
		SumProd: 3, Count: 3,
	}
	if got := p.Finalize(); !math.IsNaN(got) {
		t.Errorf("Finalize() = %v for cancelled variance, want NaN", got)
	}
}

func TestPairIndex(t *testing.T) {
	tests := []struct {
		cols int
	}{
		{2}, {3}, {4}, {7}, {20},
	}

	for _, tt := range tests {
		idx := 0
		for i := 0; i < tt.cols-1; i++ {
			for j := i + 1; j < tt.cols; j++ {
				if got := PairIndex(i, j, tt.cols); got != idx {
					t.Errorf("PairIndex(%d,%d,%d) = %d, want %d", i, j, tt.cols, got, idx)
				}
				idx++
			}
		}
		if idx != PairCount(tt.cols) {
			t.Errorf("PairCount(%d) = %d, want %d", tt.cols, PairCount(tt.cols), idx)
		}
	}
}

func TestMergeSizeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("merging tables of different sizes should panic")
		}
	}()
	NewTable[float64](3).Merge(NewTable[float64](4))
}
