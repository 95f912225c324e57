package quantfit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordFit("ols", 10*time.Millisecond, nil)
	m.RecordFit("ols", 20*time.Millisecond, errors.New("boom"))
	m.RecordPredict(4, false, 2*time.Millisecond, nil)
	m.RecordPredict(8, true, 4*time.Millisecond, errors.New("boom"))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.FitCount)
	assert.Equal(t, int64(1), stats.FitErrors)
	assert.Equal(t, (15 * time.Millisecond).Nanoseconds(), stats.FitAvgNanos)
	assert.Equal(t, int64(2), stats.PredictCount)
	assert.Equal(t, int64(1), stats.PredictErrors)
	assert.Equal(t, int64(12), stats.PredictSamples)
	assert.Equal(t, int64(1), stats.EncryptedRuns)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.PredictAvgNanos)
}

func TestBasicMetricsCollector_EmptyStats(t *testing.T) {
	m := &BasicMetricsCollector{}

	stats := m.GetStats()
	assert.Zero(t, stats.FitCount)
	assert.Zero(t, stats.FitAvgNanos)
	assert.Zero(t, stats.PredictAvgNanos)
}
