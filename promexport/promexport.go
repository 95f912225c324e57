// Package promexport exposes model training and prediction metrics as
// Prometheus collectors. Wire it into a model through the MetricsCollector
// option:
//
//	collector := promexport.NewCollector()
//	model := quantfit.NewLinearRegression(func(o *quantfit.LinearRegressionOptions) {
//		o.MetricsCollector = collector
//	})
package promexport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/quantfit"
)

// Options contains options for the Collector.
type Options struct {
	// Namespace is prefixed to every metric name.
	Namespace string

	// Registerer receives the collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// DurationBuckets are the histogram buckets in seconds. Defaults to
	// prometheus.DefBuckets.
	DurationBuckets []float64
}

// DefaultOptions holds the defaults for the Collector.
var DefaultOptions = Options{
	Namespace: "quantfit",
}

// Collector implements quantfit.MetricsCollector on top of Prometheus.
//
// Fit durations are labeled by algorithm and status, predict durations by
// execution mode (clear or encrypted) and status. Sample throughput counts
// only successful batches.
type Collector struct {
	fitDuration     *prometheus.HistogramVec
	predictDuration *prometheus.HistogramVec
	predictSamples  *prometheus.CounterVec
}

var _ quantfit.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.DurationBuckets == nil {
		opts.DurationBuckets = prometheus.DefBuckets
	}

	factory := promauto.With(opts.Registerer)

	return &Collector{
		fitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent training and quantizing models.",
			Buckets:   opts.DurationBuckets,
		}, []string{"algorithm", "status"}),
		predictDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "predict_duration_seconds",
			Help:      "Time spent running quantized inference batches.",
			Buckets:   opts.DurationBuckets,
		}, []string{"mode", "status"}),
		predictSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "predict_samples_total",
			Help:      "Samples scored by successful prediction batches.",
		}, []string{"mode"}),
	}
}

// RecordFit implements quantfit.MetricsCollector.
func (c *Collector) RecordFit(algorithm string, duration time.Duration, err error) {
	c.fitDuration.WithLabelValues(algorithm, status(err)).Observe(duration.Seconds())
}

// RecordPredict implements quantfit.MetricsCollector.
func (c *Collector) RecordPredict(samples int, encrypted bool, duration time.Duration, err error) {
	m := mode(encrypted)
	c.predictDuration.WithLabelValues(m, status(err)).Observe(duration.Seconds())
	if err == nil {
		c.predictSamples.WithLabelValues(m).Add(float64(samples))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func mode(encrypted bool) string {
	if encrypted {
		return "encrypted"
	}
	return "clear"
}
