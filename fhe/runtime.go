// Package fhe executes quantized modules under the discipline of an
// encrypted backend. Both modes run the same integer kernels and produce the
// same integers; EncryptRunDecrypt additionally enforces the accumulator
// budget an encrypted circuit would impose and meters evaluation resources
// through a Controller.
package fhe

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/quantization"
)

// Mode selects how a quantized module is evaluated.
type Mode uint8

const (
	// Simulate runs the integer kernels in the clear.
	Simulate Mode = iota
	// EncryptRunDecrypt mimics the encrypted path: every row is treated as
	// an independent encrypted evaluation, and modules whose integers
	// exceed the backend budget are rejected.
	EncryptRunDecrypt
)

func (m Mode) String() string {
	switch m {
	case Simulate:
		return "simulate"
	case EncryptRunDecrypt:
		return "encrypt-run-decrypt"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// MaxEncryptableBits is the widest signed integer the encrypted backend
// evaluates.
const MaxEncryptableBits = 8

// BudgetError indicates a module whose intermediate integers exceed the
// encrypted backend's bit-width budget.
type BudgetError struct {
	MaxBits int
	Budget  int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("circuit needs %d-bit integers, but the encrypted backend supports at most %d", e.MaxBits, e.Budget)
}

// Options configures a runtime.
type Options struct {
	// Controller meters memory, concurrency, and evaluation rate. Nil runs
	// unmetered.
	Controller *Controller

	// Parallelism caps the rows evaluated concurrently. Defaults to the
	// number of CPUs.
	Parallelism int
}

// DefaultOptions hold the default runtime configuration.
var DefaultOptions = Options{
	Parallelism: 0,
}

// Runtime evaluates quantized modules row by row.
type Runtime struct {
	mode Mode
	opts Options
}

// NewRuntime creates a runtime for the given mode.
func NewRuntime(mode Mode, optFns ...func(o *Options)) *Runtime {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	return &Runtime{mode: mode, opts: opts}
}

// Mode returns the evaluation mode.
func (r *Runtime) Mode() Mode { return r.mode }

// Execute quantizes the batch, runs every row through the integer kernels,
// and dequantizes the results. Rows are evaluated concurrently; row order is
// preserved in the output.
func (r *Runtime) Execute(ctx context.Context, m *quantization.Module, x *mat.Dense) (*mat.Dense, error) {
	if r.mode == EncryptRunDecrypt && m.MaxBitWidth() > MaxEncryptableBits {
		return nil, &BudgetError{MaxBits: m.MaxBitWidth(), Budget: MaxEncryptableBits}
	}

	q, err := m.QuantizeInput(x)
	if err != nil {
		return nil, err
	}

	ctrl := r.opts.Controller
	workingSet := int64(8 * (m.InputFeatures() + m.OutputWidth()))

	out := make([][]int32, len(q))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)

	for i, row := range q {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := ctrl.AcquireThroughput(ctx, 1); err != nil {
				return err
			}
			if err := ctrl.AcquireMemory(ctx, workingSet); err != nil {
				return err
			}
			defer ctrl.ReleaseMemory(workingSet)
			if err := ctrl.AcquireEvaluation(ctx); err != nil {
				return err
			}
			defer ctrl.ReleaseEvaluation()

			res, err := m.Forward([][]int32{row})
			if err != nil {
				return err
			}
			out[i] = res[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m.DequantizeOutput(out), nil
}
