// Package batch evaluates the geodesic kernels elementwise over equal-length
// slices with a bounded number of workers.
//
// Every element is computed independently with the scalar routine, so batch
// results are identical to scalar ones. A failing element has its outputs set
// to NaN; the remaining elements still run and the failures are reported
// together in a *BatchError.
package batch

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/telemetry"
)

// minChunk is the smallest number of elements handed to one worker.
const minChunk = 16

// ElementError is the failure of one element.
type ElementError struct {
	Index int
	Err   error
}

// BatchError lists failed elements in index order.
type BatchError struct {
	Op       string
	N        int
	Failures []ElementError
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch %s: %d of %d elements failed", e.Op, len(e.Failures), e.N)
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, "; first at index %d: %v", e.Failures[0].Index, e.Failures[0].Err)
	}
	return b.String()
}

// Unwrap returns the first underlying error.
func (e *BatchError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[0].Err
}

// Evaluator runs batch operations on a fixed number of workers. The zero
// value runs serially.
type Evaluator struct {
	workers int
}

func New(workers int) *Evaluator {
	ev := &Evaluator{}
	ev.SetWorkers(workers)
	return ev
}

// SetWorkers sets the worker count; values below 1 mean serial execution.
func (ev *Evaluator) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	ev.workers = n
}

func (ev *Evaluator) Workers() int {
	if ev.workers < 1 {
		return 1
	}
	return ev.workers
}

func checkLen(n int, slices ...[]float64) error {
	for i, s := range slices {
		if len(s) != n {
			return fmt.Errorf("%w: argument %d has length %d, want %d", dynamo.ErrDimensionMismatch, i, len(s), n)
		}
	}
	return nil
}

// run evaluates fn for every index in [0, n) and collects the failures.
func (ev *Evaluator) run(op string, n int, fn func(i int) error) error {
	errs := make([]error, n)
	chunk := func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	}

	dynamo.ParallelFor(n, minChunk, ev.Workers(), chunk)

	var failures []ElementError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, ElementError{Index: i, Err: err})
		}
	}
	ok := n - len(failures)
	telemetry.BatchElements.WithLabelValues(op, telemetry.OK).Add(float64(ok))
	if len(failures) == 0 {
		return nil
	}
	telemetry.BatchElements.WithLabelValues(op, telemetry.Error).Add(float64(len(failures)))
	return &BatchError{Op: op, N: n, Failures: failures}
}

func nan(outs ...*float64) {
	for _, o := range outs {
		*o = math.NaN()
	}
}
