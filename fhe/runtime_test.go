package fhe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
	"github.com/hupe1980/quantfit/quantization"
)

func quantizedLinear(t *testing.T, nBits int) (*quantization.Module, *mat.Dense) {
	t.Helper()

	w := mat.NewDense(2, 3, []float64{
		1.0, -0.5, 0.25,
		0.5, 1.0, -1.0,
	})
	g, err := graph.BuildLinear(w, []float64{0.1, -0.2}, false)
	require.NoError(t, err)

	calib := mat.NewDense(4, 3, []float64{
		-1.0, -1.0, -1.0,
		-0.5, 0.5, 1.0,
		0.5, -0.5, 0.0,
		1.0, 1.0, 1.0,
	})

	ptq, err := quantization.NewPostTrainingQuantizer(nBits)
	require.NoError(t, err)
	m, err := ptq.QuantizeModule(g, calib)
	require.NoError(t, err)

	return m, calib
}

func quantizedPairwise(t *testing.T) (*quantization.Module, *mat.Dense) {
	t.Helper()

	w := mat.NewDense(1, 4, []float64{1, -1, 1, -1})
	g, err := graph.BuildPairwiseSum(w, 0.5)
	require.NoError(t, err)

	calib := mat.NewDense(2, 4, []float64{
		-1, -1, -1, -1,
		1, 1, 1, 1,
	})

	ptq, err := quantization.NewPostTrainingQuantizer(2)
	require.NoError(t, err)
	m, err := ptq.QuantizeModule(g, calib)
	require.NoError(t, err)

	return m, calib
}

func TestRuntime_SimulateMatchesModulePredict(t *testing.T) {
	m, x := quantizedLinear(t, 8)

	r := NewRuntime(Simulate)
	got, err := r.Execute(context.Background(), m, x)
	require.NoError(t, err)

	want, err := m.Predict(x)
	require.NoError(t, err)

	assert.True(t, mat.Equal(want, got), "simulated execution must match the module's own prediction")
}

func TestRuntime_BudgetGate(t *testing.T) {
	m, x := quantizedLinear(t, 8)
	require.Greater(t, m.MaxBitWidth(), MaxEncryptableBits)

	r := NewRuntime(EncryptRunDecrypt)
	_, err := r.Execute(context.Background(), m, x)

	var be *BudgetError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, m.MaxBitWidth(), be.MaxBits)
	assert.Equal(t, MaxEncryptableBits, be.Budget)
	assert.Contains(t, be.Error(), "8")
}

func TestRuntime_EncryptedPathWithinBudget(t *testing.T) {
	m, x := quantizedPairwise(t)
	require.LessOrEqual(t, m.MaxBitWidth(), MaxEncryptableBits)

	enc := NewRuntime(EncryptRunDecrypt)
	got, err := enc.Execute(context.Background(), m, x)
	require.NoError(t, err)

	sim := NewRuntime(Simulate)
	want, err := sim.Execute(context.Background(), m, x)
	require.NoError(t, err)

	// Both modes run the same integer kernels.
	assert.True(t, mat.Equal(want, got))
}

func TestRuntime_MeteredExecution(t *testing.T) {
	m, x := quantizedLinear(t, 8)

	ctrl := NewController(Config{
		MaxConcurrentEvaluations: 2,
		EvaluationsPerSec:        10000,
	})
	r := NewRuntime(Simulate, func(o *Options) {
		o.Controller = ctrl
		o.Parallelism = 2
	})

	got, err := r.Execute(context.Background(), m, x)
	require.NoError(t, err)

	want, err := m.Predict(x)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	// All reservations are returned.
	assert.Equal(t, int64(0), ctrl.MemoryUsage())
	assert.True(t, ctrl.TryAcquireEvaluation())
}

func TestRuntime_ContextCanceled(t *testing.T) {
	m, x := quantizedLinear(t, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRuntime(Simulate)
	_, err := r.Execute(ctx, m, x)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuntime_WidthMismatch(t *testing.T) {
	m, _ := quantizedLinear(t, 8)

	r := NewRuntime(Simulate)
	_, err := r.Execute(context.Background(), m, mat.NewDense(1, 7, nil))

	var wm *graph.ErrWidthMismatch
	require.ErrorAs(t, err, &wm)
	assert.Equal(t, 3, wm.Expected)
	assert.Equal(t, 7, wm.Actual)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "simulate", Simulate.String())
	assert.Equal(t, "encrypt-run-decrypt", EncryptRunDecrypt.String())
}
