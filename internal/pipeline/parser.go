package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kolkov/upcc/internal/chunk"
)

// DefaultRowsPerChunk is the chunk height used when the hub does not
// specify one.
const DefaultRowsPerChunk = 100

// Parser drains the row queue, converts cells to the scalar type and
// packs them into column-major chunks offered onto the chunk queue.
// Each worker owns one parser; the queues themselves carry the
// multi-producer multi-consumer load.
type Parser[T chunk.Scalar] struct {
	hub          *Hub[T]
	cols         int
	rowsPerChunk int
	bitSize      int

	// chunk being filled, nil when none is in progress
	current *chunk.Chunk[T]
	// current is full and waiting for the chunk queue to take it
	pending bool
}

// NewParser builds a parser for rows of cols cells, honoring the hub's
// chunk height override.
func NewParser[T chunk.Scalar](cols int, hub *Hub[T]) *Parser[T] {
	p := &Parser[T]{
		hub:          hub,
		cols:         cols,
		rowsPerChunk: DefaultRowsPerChunk,
		bitSize:      scalarBits[T](),
	}
	if n := hub.RowsPerChunk(); n > 0 {
		p.rowsPerChunk = n
	}
	return p
}

// SetRowsPerChunk overrides the chunk height. It fails once a chunk is
// in progress: chunks already offered would disagree with later ones.
func (p *Parser[T]) SetRowsPerChunk(n int) error {
	if p.current != nil {
		return &LogicError{Message: "cannot change chunk size after parsing has started"}
	}
	p.rowsPerChunk = n
	return nil
}

// ParseChunk advances one step toward producing one chunk: it retries a
// deferred offer if one is pending, otherwise polls rows and appends
// them until the chunk fills or the row queue runs dry. It returns true
// when a chunk lands on the chunk queue; false means no progress is
// possible right now (empty row queue or full chunk queue), which is
// back-pressure, not failure. A malformed row is a fatal FormatError.
func (p *Parser[T]) ParseChunk() (bool, error) {
	if p.pending {
		if p.hub.OfferChunk(p.current) {
			p.current = nil
			p.pending = false
			return true, nil
		}
		return false, nil
	}

	for {
		row, ok := p.hub.PollRow()
		if !ok {
			return false, nil
		}
		if len(row) != p.cols {
			return false, &FormatError{Message: fmt.Sprintf("row has %d values, want %d", len(row), p.cols)}
		}
		if p.current == nil {
			p.current = chunk.New[T](p.rowsPerChunk, p.cols)
		}
		for _, cell := range row {
			v, err := p.parseCell(cell)
			if err != nil {
				return false, err
			}
			p.current.PushBack(v)
		}
		if p.current.Full() {
			if p.hub.OfferChunk(p.current) {
				p.current = nil
				return true, nil
			}
			// chunk queue full, defer the offer
			p.pending = true
			return false, nil
		}
	}
}

// ParseMany invokes ParseChunk until it reports no progress.
func (p *Parser[T]) ParseMany() error {
	for {
		ok, err := p.ParseChunk()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// StorePartialChunk offers a non-empty partial chunk, if one is held,
// onto the chunk queue. It returns true when no partial chunk exists or
// the offer succeeded; false means the offer must be retried before the
// worker may finish parsing.
func (p *Parser[T]) StorePartialChunk() bool {
	if p.current == nil || p.current.Empty() {
		return true
	}
	p.pending = true
	if p.hub.OfferChunk(p.current) {
		p.current = nil
		p.pending = false
		return true
	}
	return false
}

// Hold reports whether a chunk is currently held.
func (p *Parser[T]) Hold() bool { return p.current != nil }

// HoldFilled reports whether the held chunk is waiting to be offered.
func (p *Parser[T]) HoldFilled() bool { return p.pending }

// parseCell converts one cell to the scalar type. Cells must be
// decimal numbers; anything else is a fatal FormatError.
func (p *Parser[T]) parseCell(s string) (T, error) {
	t := strings.TrimSpace(s)
	v, err := strconv.ParseFloat(t, p.bitSize)
	// ParseFloat also takes hexadecimal, Inf and NaN spellings
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsAny(t, "xX") {
		return 0, &FormatError{Message: fmt.Sprintf("cell %q is not numeric", s)}
	}
	return T(v), nil
}

// scalarBits returns the ParseFloat bit size of the scalar type.
func scalarBits[T chunk.Scalar]() int {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return 32
	}
	return 64
}
