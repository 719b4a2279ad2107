// Package upcc computes the pairwise Pearson correlation coefficient
// matrix of a delimited numeric table too large to hold in memory.
//
// upcc streams the input through a three-stage pipeline, featuring:
//   - Bounded lock-free queues between stages (code.hybscloud.com/lfq)
//   - Column-major chunks so the inner folds run on unit-stride,
//     SIMD-accelerated loads (go-highway)
//   - Cooperative workers that switch between parsing and computing
//     under back-pressure instead of blocking
//   - Single-pass sufficient statistics that merge commutatively
//     across workers
//
// # Quick Start
//
//	err := upcc.Run(file, nil)
//
// With configuration:
//
//	err := upcc.Run(file, &upcc.Config{
//	    Workers:      8,
//	    RowsPerChunk: 1000,
//	})
//
// The input's first row is a header and only determines the column
// count; every following row must hold exactly that many decimal
// values. Output is one line per unordered column pair (c1,c2), c1<c2,
// in lexicographic order:
//
//	(0,1) 0.9970544855015816
//	(0,2) -0.5976143046671968
//	(1,2) NaN
//
// A pair where either column has zero variance has no defined
// correlation and prints NaN.
//
// # Configuration
//
// The [Config] type controls the worker count, the chunk height, the
// scalar precision and the accumulation algorithm. Results are
// delivered only once input is exhausted; with more than one worker
// the pair ordering is always identical and values agree up to
// floating-point summation order.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [FormatError]: a non-numeric cell or a row length mismatch
//   - [IOError]: the input stream failed mid-read
//   - [LogicError]: an internal contract violation (a bug)
//
// Any of them aborts the run; nothing is printed.
package upcc
