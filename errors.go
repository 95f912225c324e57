package quantfit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/quantfit/graph"
)

var (
	// ErrNotFitted is returned when an operation requires a fitted model.
	ErrNotFitted = errors.New("model is not fitted, call Fit first")
)

// PreconditionError indicates a model shape the overflow-safe sum workaround
// cannot handle. The workaround rewrites the dot product as a halving
// reduction tree, which only folds cleanly for a power-of-two feature count
// and a single output.
type PreconditionError struct {
	Features int
	Targets  int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf(
		"the sum workaround only supports a power-of-two feature count and a single target; got %d features and %d target(s)",
		e.Features, e.Targets,
	)
}

// ShapeMismatchError indicates disagreeing dimensions between inputs, or
// between an input and the fitted model.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ShapeMismatchError struct {
	Dim      string // the dimension that disagrees, e.g. "sample count"
	Expected int
	Actual   int
	cause    error
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %d, got %d", e.Dim, e.Expected, e.Actual)
}

func (e *ShapeMismatchError) Unwrap() error { return e.cause }

// translateError normalizes errors crossing the package boundary.
// tabular.ValidationError and fhe.BudgetError pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var wm *graph.ErrWidthMismatch
	if errors.As(err, &wm) {
		return &ShapeMismatchError{
			Dim:      "feature count",
			Expected: wm.Expected,
			Actual:   wm.Actual,
			cause:    err,
		}
	}

	return err
}
