package pipeline

import (
	"math/rand/v2"
	"runtime"

	"github.com/kolkov/upcc/internal/chunk"
	"github.com/kolkov/upcc/internal/stats"
)

// phaseSteps bounds the per-iteration split of parse and compute
// attempts: each worker takes between 1 and phaseSteps of each, and the
// two add up to phaseSteps+1. Each worker draws its own split once at
// construction so the pool does not hammer the same queue end in
// lockstep.
const phaseSteps = 6

// Worker composes one parser and one accumulator over the shared hub
// and interleaves the two phases until both guards latch. Guards latch
// only after a failed operation observed under the corresponding phase
// flag, so a row or chunk racing the flag check is picked up on the
// next iteration.
type Worker[T chunk.Scalar] struct {
	hub    *Hub[T]
	parser *Parser[T]
	acc    stats.Accumulator[T]

	// latched when this worker can produce no more chunks
	parseGuard bool
	// latched when this worker can analyze no more chunks
	computeGuard bool
	// neither phase made progress during the last iteration
	stalled bool

	parseReps   int
	computeReps int
}

// NewWorker builds a worker over the hub. The accumulator is owned by
// the worker until Partials is called after its run finishes.
func NewWorker[T chunk.Scalar](cols int, hub *Hub[T], acc stats.Accumulator[T], rng *rand.Rand) *Worker[T] {
	w := &Worker[T]{
		hub:    hub,
		parser: NewParser[T](cols, hub),
		acc:    acc,
	}
	w.parseReps = 1 + rng.IntN(phaseSteps)
	w.computeReps = 1 + phaseSteps - w.parseReps
	return w
}

// parse attempts one parser step. Under end-of-input a terminal failure
// flushes any partial chunk and latches the parse guard; the guard is
// not latched while an offer is still deferred, so no chunk is lost.
func (w *Worker[T]) parse() (bool, error) {
	// observe the flag before the attempt: a row enqueued concurrently
	// with a set flag is seen by the attempt or by the next iteration
	if !w.hub.EndOfInput() {
		return w.parser.ParseChunk()
	}

	ok, err := w.parser.ParseChunk()
	if err != nil || ok {
		return ok, err
	}
	if w.parser.HoldFilled() {
		// failed offer, retry on a later iteration
		return false, nil
	}
	if w.parser.Hold() && !w.parser.StorePartialChunk() {
		// partial chunk could not be offered yet
		return false, nil
	}
	w.hub.ParserFinished()
	w.parseGuard = true
	return false, nil
}

// analyze polls one chunk and folds it into the accumulator. The chunk
// is dropped when the fold returns.
func (w *Worker[T]) analyze() bool {
	cnk, ok := w.hub.PollChunk()
	if !ok {
		return false
	}
	w.acc.Accumulate(cnk)
	return true
}

// compute attempts one analyze step, latching the compute guard on a
// failure observed after every parser has finished. Once parsing is
// done the chunk queue has no producers left, so its threshold is
// lifted first: a failed poll after that means the queue is truly
// empty, never a spurious miss that would drop chunks from the
// statistics.
func (w *Worker[T]) compute() bool {
	if !w.hub.ParsingDone() {
		return w.analyze()
	}
	w.hub.DrainChunks()
	if w.analyze() {
		return true
	}
	w.hub.AccumulatorFinished()
	w.computeGuard = true
	return false
}

// PerformIteration runs up to parseReps parse steps and computeReps
// compute steps. It returns false only when the worker cannot make
// progress in either phase again, or the run has been aborted.
func (w *Worker[T]) PerformIteration() (bool, error) {
	if w.hub.Failed() {
		return false, nil
	}

	var i, j int
	for ; i < w.parseReps && !w.parseGuard; i++ {
		ok, err := w.parse()
		if err != nil {
			w.hub.Fail()
			return false, err
		}
		if !ok {
			break
		}
	}
	for ; j < w.computeReps && !w.computeGuard; j++ {
		if !w.compute() {
			break
		}
	}
	w.stalled = i == 0 && j == 0
	return !(w.parseGuard && w.computeGuard), nil
}

// Run iterates until the worker retires, yielding the scheduler
// whenever an iteration made no progress so spinning workers cannot
// starve the rest of the pool.
func (w *Worker[T]) Run() error {
	for {
		more, err := w.PerformIteration()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if w.stalled {
			runtime.Gosched()
		}
	}
}

// Partials hands the worker's accumulated table to the caller. Call
// only after Run has returned.
func (w *Worker[T]) Partials() stats.Table[T] {
	return w.acc.Partials()
}
