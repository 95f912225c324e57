package quantfit

// PredictOptions configures a single prediction call.
type PredictOptions struct {
	// ExecuteInFHE runs the batch through the encrypted execution path
	// instead of the cleartext integer simulation. Both paths evaluate the
	// same integer kernels and return identical results; the encrypted path
	// additionally enforces the runtime's bit-width budget.
	ExecuteInFHE bool
}

// DefaultPredictOptions runs predictions as a cleartext simulation.
var DefaultPredictOptions = PredictOptions{
	ExecuteInFHE: false,
}
