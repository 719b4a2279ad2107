package upcc

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"strconv"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/upcc/internal/chunk"
	"github.com/kolkov/upcc/internal/pipeline"
	"github.com/kolkov/upcc/internal/stats"
)

// Version is the upcc version string.
const Version = "0.1.0"

// Run streams the delimited numeric table from input and prints the
// Pearson correlation coefficient of every unordered column pair to
// the configured output once input is exhausted.
//
// The run is aborted by the first malformed cell or row ([FormatError]),
// read failure ([IOError]) or internal contract violation ([LogicError]);
// nothing is printed in that case.
func Run(input io.Reader, config *Config) error {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()

	if cfg.Single {
		return run[float32](input, &cfg)
	}
	return run[float64](input, &cfg)
}

// run executes the pipeline with the scalar type fixed.
func run[T chunk.Scalar](input io.Reader, cfg *Config) error {
	hub := pipeline.NewHub[T](cfg.Workers, pipeline.DefaultRowCap, pipeline.DefaultChunkCap)
	if cfg.RowsPerChunk > 0 {
		hub.SetRowsPerChunk(cfg.RowsPerChunk)
	}

	reader, err := pipeline.NewReader[T](input, hub)
	if err != nil {
		if exported := exportError(err); exported != err {
			return exported
		}
		return &IOError{Err: err}
	}
	cols := reader.ColumnCount()

	newAccumulator := func() stats.Accumulator[T] {
		if cfg.Naive {
			return stats.NewPerPair[T](cols)
		}
		return stats.NewMultiColumn[T](cols)
	}

	workers := make([]*pipeline.Worker[T], cfg.Workers)
	for i := range workers {
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		workers[i] = pipeline.NewWorker(cols, hub, newAccumulator(), rng)
	}

	// workers[0] runs on this goroutine, interleaved with the reader
	var g errgroup.Group
	for _, w := range workers[1:] {
		g.Go(w.Run)
	}
	mainWorker := workers[0]

	// read until end of input, computing on this goroutine whenever
	// the row queue pushes back
	for {
		done, rerr := reader.ConsumeMany()
		if rerr != nil {
			hub.Fail()
			_ = g.Wait()
			return &IOError{Err: rerr}
		}
		if done {
			break
		}
		if hub.Failed() {
			break
		}
		if _, werr := mainWorker.PerformIteration(); werr != nil {
			_ = g.Wait()
			return exportError(werr)
		}
	}
	hub.SetEndOfInput()

	// drain: keep iterating the main worker until both its guards
	// latch, yielding so the other workers can latch theirs
	for {
		more, werr := mainWorker.PerformIteration()
		if werr != nil {
			_ = g.Wait()
			return exportError(werr)
		}
		if !more {
			break
		}
		runtime.Gosched()
	}

	if werr := g.Wait(); werr != nil {
		return exportError(werr)
	}

	// field-wise sum of the per-worker tables is a valid table for the
	// whole input
	table := mainWorker.Partials()
	for _, w := range workers[1:] {
		table.Merge(w.Partials())
	}

	return printPairs(cfg.Output, finalize(table, cfg.Workers), cols)
}

// finalize derives the PCC scalar of every pair, dividing the table
// across a worker pool.
func finalize[T chunk.Scalar](table stats.Table[T], workers int) []T {
	values := make([]T, len(table))
	if len(table) == 0 {
		return values
	}
	pool := workerpool.New(workers)
	defer pool.Close()
	pool.ParallelFor(len(table), func(start, end int) {
		for i := start; i < end; i++ {
			values[i] = table[i].Finalize()
		}
	})
	return values
}

// printPairs emits one line per pair in lexicographic order.
func printPairs[T chunk.Scalar](out io.Writer, values []T, cols int) error {
	w := bufio.NewWriter(out)
	idx := 0
	for c1 := 0; c1 < cols; c1++ {
		for c2 := c1 + 1; c2 < cols; c2++ {
			if _, err := fmt.Fprintf(w, "(%d,%d) %s\n", c1, c2, formatScalar(values[idx])); err != nil {
				return err
			}
			idx++
		}
	}
	return w.Flush()
}

// formatScalar renders a scalar in round-trip-safe decimal form.
func formatScalar[T chunk.Scalar](v T) string {
	if _, ok := any(v).(float32); ok {
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}
