package quantfit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promexport package ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordFit is called after each fit operation.
	// algorithm names the trainer, duration is the total time taken
	// including quantization, err is nil if successful.
	RecordFit(algorithm string, duration time.Duration, err error)

	// RecordPredict is called after each prediction batch.
	// samples is the batch size, encrypted reports whether the batch ran
	// through the encrypted execution path.
	RecordPredict(samples int, encrypted bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFit(string, time.Duration, error)        {}
func (NoopMetricsCollector) RecordPredict(int, bool, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FitCount          atomic.Int64
	FitErrors         atomic.Int64
	FitTotalNanos     atomic.Int64
	PredictCount      atomic.Int64
	PredictErrors     atomic.Int64
	PredictTotalNanos atomic.Int64
	PredictSamples    atomic.Int64
	EncryptedRuns     atomic.Int64
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(algorithm string, duration time.Duration, err error) {
	b.FitCount.Add(1)
	b.FitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(samples int, encrypted bool, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictSamples.Add(int64(samples))
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if encrypted {
		b.EncryptedRuns.Add(1)
	}
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FitCount:        b.FitCount.Load(),
		FitErrors:       b.FitErrors.Load(),
		FitAvgNanos:     b.avgNanos(&b.FitTotalNanos, &b.FitCount),
		PredictCount:    b.PredictCount.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictAvgNanos: b.avgNanos(&b.PredictTotalNanos, &b.PredictCount),
		PredictSamples:  b.PredictSamples.Load(),
		EncryptedRuns:   b.EncryptedRuns.Load(),
	}
}

func (b *BasicMetricsCollector) avgNanos(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FitCount        int64
	FitErrors       int64
	FitAvgNanos     int64
	PredictCount    int64
	PredictErrors   int64
	PredictAvgNanos int64
	PredictSamples  int64
	EncryptedRuns   int64
}
