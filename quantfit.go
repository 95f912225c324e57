package quantfit

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/fhe"
	"github.com/hupe1980/quantfit/graph"
	"github.com/hupe1980/quantfit/linmodel"
	"github.com/hupe1980/quantfit/quantization"
	"github.com/hupe1980/quantfit/tabular"
)

// estimator is the fit/predict core shared by every model type. It trains
// the float model, exports its computation graph, excises a trailing sigmoid
// before calibration and drives post-training quantization. The quantized
// module is the only fitted state; a nil module means unfitted.
type estimator struct {
	algorithm  linmodel.Algorithm
	hp         linmodel.Hyperparams
	nBits      int
	workaround bool
	classifier bool

	logger  *Logger
	metrics MetricsCollector

	module  *quantization.Module
	classes []float64
}

// fit coerces the training table, compiles the quantized module and records
// the outcome. It leaves the previous fitted state untouched on error.
func (e *estimator) fit(x, y any) error {
	start := time.Now()

	var samples, features int
	xd, yd, err := coerceTable(x, y)
	if err == nil {
		samples, features = xd.Dims()
		err = e.fitTable(xd, yd)
	}
	duration := time.Since(start)

	err = translateError(err)
	e.metrics.RecordFit(e.algorithm.String(), duration, err)
	e.logger.LogFit(context.Background(), e.algorithm.String(), samples, features, e.maxBitWidth(), err)

	return err
}

func (e *estimator) fitTable(xd, yd *mat.Dense) error {
	rows, features := xd.Dims()
	yRows, targets := yd.Dims()
	if yRows != rows {
		return &ShapeMismatchError{Dim: "sample count", Expected: rows, Actual: yRows}
	}

	var classes []float64
	if e.classifier {
		if targets != 1 {
			return &ShapeMismatchError{Dim: "target column count", Expected: 1, Actual: targets}
		}
		var err error
		if yd, classes, err = encodeLabels(yd); err != nil {
			return err
		}
	}

	if e.workaround {
		if !isPowerOfTwo(features) || targets != 1 {
			return &PreconditionError{Features: features, Targets: targets}
		}
		// Training and calibration run on a private copy so the artifact
		// cannot alias the caller's data.
		xd = mat.DenseCopyOf(xd)
	}

	trainer, err := linmodel.New(e.algorithm, e.hp)
	if err != nil {
		return err
	}

	params, err := trainer.Fit(xd, yd)
	if err != nil {
		return err
	}

	var g *graph.Graph
	if e.workaround {
		g, err = graph.BuildPairwiseSum(params.Weights, params.Intercept[0])
	} else {
		withSigmoid := e.classifier && params.Targets() == 1
		g, err = graph.BuildLinear(params.Weights, params.Intercept, withSigmoid)
	}
	if err != nil {
		return err
	}

	// Probabilities are computed on the dequantized side for every model;
	// the graph ends at the raw scores. Runs once per fit, before
	// calibration, and keeps the designated output tensor.
	graph.RemoveTrailingSigmoid(g)

	ptq, err := quantization.NewPostTrainingQuantizer(e.nBits)
	if err != nil {
		return err
	}

	m, err := ptq.QuantizeModule(g, xd)
	if err != nil {
		return err
	}

	e.module = m
	e.classes = classes

	return nil
}

// encodeLabels derives the sorted class labels from the target column and
// replaces each label with its class index, the form the logistic trainer
// expects.
func encodeLabels(yd *mat.Dense) (*mat.Dense, []float64, error) {
	classes := tabular.Labels(yd)
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("classification requires at least two distinct classes, got %d", len(classes))
	}

	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	rows, _ := yd.Dims()
	encoded := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		encoded.Set(i, 0, float64(index[yd.At(i, 0)]))
	}

	return encoded, classes, nil
}

// predict runs the quantized module over the batch and returns dequantized
// raw scores (samples x outputs). For regressors these are the predictions;
// the classifier post-processes them into probabilities.
func (e *estimator) predict(ctx context.Context, x any, optFns ...func(o *PredictOptions)) (*mat.Dense, error) {
	opts := DefaultPredictOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	out, samples, err := e.execute(ctx, x, opts)
	duration := time.Since(start)

	err = translateError(err)
	e.metrics.RecordPredict(samples, opts.ExecuteInFHE, duration, err)
	e.logger.LogPredict(ctx, samples, opts.ExecuteInFHE, err)

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (e *estimator) execute(ctx context.Context, x any, opts PredictOptions) (*mat.Dense, int, error) {
	m, err := e.requireModule()
	if err != nil {
		return nil, 0, err
	}

	xd, err := tabular.Coerce(x)
	if err != nil {
		return nil, 0, err
	}
	samples, _ := xd.Dims()

	mode := fhe.Simulate
	if opts.ExecuteInFHE {
		mode = fhe.EncryptRunDecrypt
	}

	out, err := fhe.NewRuntime(mode).Execute(ctx, m, xd)
	if err != nil {
		return nil, samples, err
	}

	return out, samples, nil
}

// scoreR2 predicts on x and returns the coefficient of determination against
// y, averaged uniformly over target columns.
func (e *estimator) scoreR2(ctx context.Context, x, y any, optFns ...func(o *PredictOptions)) (float64, error) {
	pred, err := e.predict(ctx, x, optFns...)
	if err != nil {
		return 0, err
	}

	yd, err := tabular.CoerceTargets(y)
	if err != nil {
		return 0, err
	}

	return rSquared(yd, pred)
}

// requireModule returns the fitted module or ErrNotFitted.
func (e *estimator) requireModule() (*quantization.Module, error) {
	if e.module == nil {
		return nil, ErrNotFitted
	}

	return e.module, nil
}

func (e *estimator) fitted() bool { return e.module != nil }

func (e *estimator) maxBitWidth() int {
	if e.module == nil {
		return 0
	}

	return e.module.MaxBitWidth()
}

func coerceTable(x, y any) (*mat.Dense, *mat.Dense, error) {
	xd, err := tabular.Coerce(x)
	if err != nil {
		return nil, nil, err
	}

	yd, err := tabular.CoerceTargets(y)
	if err != nil {
		return nil, nil, err
	}

	return xd, yd, nil
}

// rSquared is 1 - SS_res/SS_tot per target column. A constant target column
// scores 1 when matched exactly and 0 otherwise.
func rSquared(yTrue, yPred *mat.Dense) (float64, error) {
	rows, targets := yTrue.Dims()
	pRows, pTargets := yPred.Dims()
	if pRows != rows {
		return 0, &ShapeMismatchError{Dim: "sample count", Expected: pRows, Actual: rows}
	}
	if pTargets != targets {
		return 0, &ShapeMismatchError{Dim: "target column count", Expected: pTargets, Actual: targets}
	}

	var total float64
	for j := 0; j < targets; j++ {
		var mean float64
		for i := 0; i < rows; i++ {
			mean += yTrue.At(i, j)
		}
		mean /= float64(rows)

		var ssRes, ssTot float64
		for i := 0; i < rows; i++ {
			r := yTrue.At(i, j) - yPred.At(i, j)
			ssRes += r * r
			c := yTrue.At(i, j) - mean
			ssTot += c * c
		}

		switch {
		case ssTot != 0:
			total += 1 - ssRes/ssTot
		case ssRes == 0:
			total++
		}
	}

	return total / float64(targets), nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func ensureLogger(l *Logger) *Logger {
	if l == nil {
		return NoopLogger()
	}

	return l
}

func ensureMetrics(m MetricsCollector) MetricsCollector {
	if m == nil {
		return NoopMetricsCollector{}
	}

	return m
}
