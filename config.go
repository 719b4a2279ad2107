package upcc

import (
	"io"
	"os"
	"runtime"
)

// Config holds configuration options for a correlation run.
type Config struct {
	// Workers is the total number of pipeline workers, including the
	// one that runs on the calling goroutine while input is read.
	// When 0, defaults to one worker per CPU, with one CPU left to
	// the reader (never fewer than two workers total).
	Workers int

	// RowsPerChunk is the number of rows packed into each chunk
	// handed to the compute stage (default: 100).
	RowsPerChunk int

	// Single computes in float32 instead of float64.
	Single bool

	// Naive uses the per-pair reference accumulator instead of the
	// flat-array one. Slower; the results are the same statistics.
	Naive bool

	// Output is the writer the pair table is printed to.
	// If nil, standard output is used.
	Output io.Writer
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = max(1, runtime.NumCPU()-1) + 1
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
}
