// Package quantfit compiles trained float linear models into fixed-point
// integer computation modules suitable for encrypted inference.
//
// Fitting works in two stages: the float model is trained exactly as usual,
// then its parameters are exported as a small computation graph and
// quantized post-training, calibrated on the training features. The result
// is a module whose inference uses nothing but integer arithmetic and
// lookup tables, so the same predictions can be produced inside a
// homomorphic encryption scheme that only evaluates bounded integers.
//
// Supported models:
//
//   - LinearRegression: ordinary least squares, optional non-negativity
//   - Ridge: L2 penalty
//   - Lasso: L1 penalty
//   - ElasticNet: mixed L1/L2 penalty
//   - LogisticRegression: binary and multinomial classification
//
// # Quick Start
//
// Fit a regressor and predict through the quantized module:
//
//	ctx := context.Background()
//
//	lr := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
//	    o.NBits = 8
//	})
//	if err := lr.Fit(x, y); err != nil {
//	    log.Fatal(err)
//	}
//
//	pred, err := lr.Predict(ctx, x)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Models are unfitted until Fit succeeds; operations that need the fitted
// module return ErrNotFitted before that:
//
//	if _, err := lr.Artifact(); errors.Is(err, quantfit.ErrNotFitted) {
//	    // call Fit first
//	}
//
// # Sum Workaround
//
// Low bit widths leave little headroom in the accumulator of a dot product.
// The sum workaround rewrites the dot product as element-wise products
// followed by a pairwise reduction tree, which sums n values in log2(n)
// levels and keeps every intermediate within the quantized range:
//
//	lr := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
//	    o.UseSumWorkaround = true
//	})
//
// The tree only folds cleanly for a power-of-two feature count and a single
// target column; Fit fails with a PreconditionError for any other shape.
//
// # Classification
//
// LogisticRegression compiles to a module that computes raw decision
// scores. Probabilities and labels are derived on the dequantized side:
// binary scores pass through the logistic function and expand to the pair
// (1-p, p), multi-class scores are exponentiated and normalized per row.
// Predict returns class indices; Classes maps them back to the original
// labels:
//
//	clf := quantfit.NewLogisticRegression()
//	if err := clf.Fit(x, labels); err != nil {
//	    log.Fatal(err)
//	}
//
//	proba, _ := clf.PredictProba(ctx, x)
//	pred, _ := clf.Predict(ctx, x)
//	fmt.Println(clf.Classes(), proba, pred)
//
// # Encrypted Execution
//
// Predictions run as a cleartext integer simulation by default. Passing
// ExecuteInFHE routes the batch through the encrypted path, which encrypts
// each quantized row, evaluates the module and decrypts the result. Both
// paths produce identical outputs; the encrypted path refuses modules whose
// accumulators exceed the encryptable bit budget:
//
//	pred, err := lr.Predict(ctx, x, func(o *quantfit.PredictOptions) {
//	    o.ExecuteInFHE = true
//	})
//
//	var be *fhe.BudgetError
//	if errors.As(err, &be) {
//	    // lower NBits or enable the sum workaround
//	}
//
// # Artifacts
//
// A fitted module serializes to a compact binary artifact. The artifact
// package adds a checksummed container format and a versioned registry over
// pluggable blob stores (local filesystem, in-memory, S3, MinIO):
//
//	module, _ := lr.Artifact()
//
//	reg := artifact.NewRegistry(artifact.NewLocalStore("./models"))
//	version, err := reg.Save(ctx, "churn", &artifact.Artifact{
//	    Kind:      "linear_regression",
//	    Algorithm: "ols",
//	    NBits:     8,
//	    Module:    module,
//	})
//
// # Observability
//
// Fit and predict operations accept a structured Logger (slog-based) and a
// MetricsCollector. Both default to no-ops; BasicMetricsCollector provides
// in-process counters, and the promexport package exposes the collector as
// Prometheus metrics.
//
// The config package constructs models from declarative YAML presets, so
// training jobs can swap model kind and quantization settings without a
// rebuild.
package quantfit
