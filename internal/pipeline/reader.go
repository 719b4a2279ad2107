package pipeline

import (
	"bufio"
	"io"
	"strings"

	"github.com/kolkov/upcc/internal/chunk"
)

// Delimiter separates cells within an input row.
const Delimiter = ","

// maxLineSize bounds a single input row.
const maxLineSize = 1 << 20

// Reader feeds undecoded rows from a delimited text stream into the
// hub's row queue. The first row is the header and only determines the
// column count; data rows are split into cells and offered whole. The
// reader is the row queue's single producer.
type Reader[T chunk.Scalar] struct {
	hub     *Hub[T]
	scanner *bufio.Scanner
	cols    int

	// row that the queue refused, retried before reading further
	holder Row
}

// NewReader wraps an input stream. It consumes the header row
// immediately to learn the column count.
func NewReader[T chunk.Scalar](r io.Reader, hub *Hub[T]) (*Reader[T], error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, &FormatError{Message: "input has no header row"}
	}
	header := strings.Split(scanner.Text(), Delimiter)

	return &Reader[T]{
		hub:     hub,
		scanner: scanner,
		cols:    len(header),
	}, nil
}

// ColumnCount returns the column count determined by the header.
func (r *Reader[T]) ColumnCount() int { return r.cols }

// ConsumeRow offers exactly one row onto the row queue. It returns
// false when the queue is full (the row is held and retried on the
// next call). End of input is reported as io.EOF; any other error is
// an I/O failure.
func (r *Reader[T]) ConsumeRow() (bool, error) {
	if r.holder != nil {
		if !r.hub.OfferRow(r.holder) {
			return false, nil
		}
		r.holder = nil
		return true, nil
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return false, err
		}
		return false, io.EOF
	}
	row := strings.Split(r.scanner.Text(), Delimiter)

	if !r.hub.OfferRow(row) {
		r.holder = row
		return false, nil
	}
	return true, nil
}

// ConsumeMany offers rows until the queue refuses one or the input is
// exhausted. It returns true at end of input, false on back-pressure.
func (r *Reader[T]) ConsumeMany() (bool, error) {
	for {
		ok, err := r.ConsumeRow()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
}
