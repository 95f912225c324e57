// Package quantization lowers float computation graphs into integer-only
// modules. Encrypted evaluation can only run integer circuits, so every
// tensor of the graph gets an affine mapping onto a small integer range and
// every op becomes an integer kernel plus a requantization step.
//
// # Affine Parameters
//
// Each tensor carries Params describing real = Scale * (q - ZeroPoint).
// Activations derive their parameters from calibrated value ranges; weights
// use a symmetric signed range with zero point 0:
//
//	p := quantization.FromRange(-3.2, 5.1, 8, true)
//	q := p.Quantize(1.5)   // integer level
//	v := p.Dequantize(q)   // ≈ 1.5
//
// # Post-Training Quantization
//
// The quantizer traces the graph over a calibration batch in the float
// domain, records per-tensor min/max, and lowers every node:
//
//	ptq, _ := quantization.NewPostTrainingQuantizer(8)
//	module, err := ptq.QuantizeModule(g, calibrationBatch)
//	y, err := module.Predict(x)
//
// MatMul and Mul accumulate in int64 against symmetric integer weights;
// Add folds its bias into the requantization step; ReduceSum either
// accumulates plainly or runs the overflow-safe pairwise tree; Sigmoid
// becomes a table lookup over every representable input level.
//
// # Overflow Profile
//
// While the calibration batch runs through the integer kernels, the module
// records every value each tensor produced, accumulators included, in
// roaring bitmaps. MaxBitWidth reports the widest signed integer seen
// anywhere, which is what decides whether a module fits an encrypted
// evaluation budget:
//
//	if module.MaxBitWidth() > 8 {
//	    // too wide for the encrypted backend
//	}
//
// Modules are immutable after quantization and safe for concurrent use.
package quantization
