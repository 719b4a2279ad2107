// Package pipeline implements the three-stage streaming correlation
// pipeline: a reader feeding undecoded rows into a bounded queue, a
// per-worker parser packing rows into column-major chunks on a second
// bounded queue, and a per-worker accumulator folding chunks into
// Pearson sufficient statistics. Workers cooperatively interleave the
// parse and compute phases; a phase-counter protocol coordinates
// termination so no worker retires while work remains.
package pipeline

import (
	"sync/atomic"

	"code.hybscloud.com/lfq"

	"github.com/kolkov/upcc/internal/chunk"
)

// Row is one record of undecoded cells as delivered by the reader.
type Row = []string

const (
	// DefaultRowCap bounds the row queue. Rows are small and plentiful.
	DefaultRowCap = 100000
	// DefaultChunkCap bounds the chunk queue. Chunks are big; the
	// queue is not expected to grow far.
	DefaultChunkCap = 100
)

// Hub owns the two pipeline queues and the phase atomics shared by the
// reader, the workers and the orchestrator. Rows and chunks are
// exclusively owned as they move through the queues; only the hub
// itself is shared.
//
// Offer and poll never block: a false return is back-pressure, the
// caller's signal to switch phases, never an error.
type Hub[T chunk.Scalar] struct {
	workerCount  uint32
	rowsPerChunk int // 0 means parser default

	rows   *lfq.MPMC[Row]
	chunks *lfq.MPMC[*chunk.Chunk[T]]

	// end of input: set once by the reader's thread
	endOfInput atomic.Bool
	// incremented once per worker that has drained the row queue
	// under end-of-input and offered any partial chunk
	finishedParsers atomic.Uint32
	// incremented once per worker that has drained the chunk queue
	// after all parsers finished
	finishedAccumulators atomic.Uint32

	// latched by whichever component hits a fatal error, so every
	// worker retires instead of waiting for phase flags that will
	// never come
	failed atomic.Bool

	// the chunk queue's drain hint has been issued
	chunksDrained atomic.Bool
}

// NewHub builds the shared state for workers pipeline workers and
// queues of the given capacities. Capacities below the queue's minimum
// of 2 are raised to it.
func NewHub[T chunk.Scalar](workers, rowCap, chunkCap int) *Hub[T] {
	return &Hub[T]{
		workerCount: uint32(workers),
		rows:        lfq.NewMPMC[Row](max(rowCap, 2)),
		chunks:      lfq.NewMPMC[*chunk.Chunk[T]](max(chunkCap, 2)),
	}
}

// WorkerCount returns the number of workers the termination protocol
// counts toward.
func (h *Hub[T]) WorkerCount() int { return int(h.workerCount) }

// SetRowsPerChunk overrides the parser default chunk height. It must be
// set before workers are constructed.
func (h *Hub[T]) SetRowsPerChunk(n int) { h.rowsPerChunk = n }

// RowsPerChunk returns the configured chunk height, 0 for the default.
func (h *Hub[T]) RowsPerChunk() int { return h.rowsPerChunk }

// OfferRow moves a row into the row queue. False means the queue is
// full and the row was not taken.
func (h *Hub[T]) OfferRow(r Row) bool {
	return h.rows.Enqueue(&r) == nil
}

// PollRow moves a row out of the row queue. False means none was
// available.
func (h *Hub[T]) PollRow() (Row, bool) {
	r, err := h.rows.Dequeue()
	return r, err == nil
}

// OfferChunk moves a chunk into the chunk queue. False means the queue
// is full and the chunk was not taken.
func (h *Hub[T]) OfferChunk(c *chunk.Chunk[T]) bool {
	return h.chunks.Enqueue(&c) == nil
}

// PollChunk moves a chunk out of the chunk queue.
func (h *Hub[T]) PollChunk() (*chunk.Chunk[T], bool) {
	c, err := h.chunks.Dequeue()
	return c, err == nil
}

// SetEndOfInput records that the reader has produced every row.
// Monotonic, set once. The row queue's anti-livelock threshold is
// lifted before the flag becomes visible: its FAA-based dequeue may
// otherwise report empty while rows remain once producers go quiet,
// and a worker polling under the flag must never miss a row.
func (h *Hub[T]) SetEndOfInput() {
	if d, ok := any(h.rows).(lfq.Drainer); ok {
		d.Drain()
	}
	h.endOfInput.Store(true)
}

// EndOfInput reports whether the reader has produced every row.
func (h *Hub[T]) EndOfInput() bool { return h.endOfInput.Load() }

// ParserFinished records that one worker will produce no more chunks.
// Called at most once per worker.
func (h *Hub[T]) ParserFinished() { h.finishedParsers.Add(1) }

// ParsingDone reports whether every worker has finished parsing. Only
// under this condition may a worker treat an empty chunk queue as
// terminal.
func (h *Hub[T]) ParsingDone() bool {
	return h.finishedParsers.Load() == h.workerCount
}

// DrainChunks lifts the chunk queue's anti-livelock threshold so the
// remaining chunks dequeue without spurious misses. Callers must have
// observed ParsingDone first: the drain hint is only valid once every
// producer has finished. Idempotent.
func (h *Hub[T]) DrainChunks() {
	if !h.chunksDrained.CompareAndSwap(false, true) {
		return
	}
	if d, ok := any(h.chunks).(lfq.Drainer); ok {
		d.Drain()
	}
}

// AccumulatorFinished records that one worker will analyze no more
// chunks. Called at most once per worker.
func (h *Hub[T]) AccumulatorFinished() { h.finishedAccumulators.Add(1) }

// AnalysisDone reports whether every worker has finished analyzing.
func (h *Hub[T]) AnalysisDone() bool {
	return h.finishedAccumulators.Load() == h.workerCount
}

// Fail aborts the run: every worker observes it on its next iteration
// and retires. The failing component keeps its error; the hub only
// carries the flag.
func (h *Hub[T]) Fail() { h.failed.Store(true) }

// Failed reports whether the run has been aborted.
func (h *Hub[T]) Failed() bool { return h.failed.Load() }
