package quantfit

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/fhe"
)

// binaryClassification builds two well-separated clusters labeled 0 and 1.
func binaryClassification() (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(11))
	x := mat.NewDense(20, 2, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		center, label := -1.0, 0.0
		if i >= 10 {
			center, label = 1.0, 1.0
		}
		x.Set(i, 0, center+rng.Float64()*0.6-0.3)
		x.Set(i, 1, center+rng.Float64()*0.6-0.3)
		y.Set(i, 0, label)
	}
	return x, y
}

// triClassification builds three separated clusters with non-contiguous
// labels 2, 5 and 9.
func triClassification() (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(23))
	centers := [][2]float64{{-2, 0}, {2, 0}, {0, 2}}
	labels := []float64{2, 5, 9}

	x := mat.NewDense(30, 2, nil)
	y := mat.NewDense(30, 1, nil)
	for i := 0; i < 30; i++ {
		c := i / 10
		x.Set(i, 0, centers[c][0]+rng.Float64()*0.5-0.25)
		x.Set(i, 1, centers[c][1]+rng.Float64()*0.5-0.25)
		y.Set(i, 0, labels[c])
	}
	return x, y
}

func TestLogisticRegression_Binary(t *testing.T) {
	x, y := binaryClassification()
	ctx := context.Background()

	clf := NewLogisticRegression(func(o *LogisticRegressionOptions) {
		o.NBits = 8
	})
	require.NoError(t, clf.Fit(x, y))
	require.True(t, clf.IsFitted())

	assert.Equal(t, []float64{0, 1}, clf.Classes())

	scores, err := clf.DecisionFunction(ctx, x)
	require.NoError(t, err)
	_, cols := scores.Dims()
	assert.Equal(t, 1, cols, "a binary model produces a single score column")

	proba, err := clf.PredictProba(ctx, x)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	require.Equal(t, 20, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9, "row %d", i)
	}

	pred, err := clf.Predict(ctx, x)
	require.NoError(t, err)
	for i, p := range pred {
		want := 0
		if i >= 10 {
			want = 1
		}
		assert.Equal(t, want, p, "sample %d", i)
	}

	score, err := clf.Score(ctx, x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLogisticRegression_Multiclass(t *testing.T) {
	x, y := triClassification()
	ctx := context.Background()

	clf := NewLogisticRegression(func(o *LogisticRegressionOptions) {
		o.NBits = 8
	})
	require.NoError(t, clf.Fit(x, y))

	assert.Equal(t, []float64{2, 5, 9}, clf.Classes())

	scores, err := clf.DecisionFunction(ctx, x)
	require.NoError(t, err)
	_, cols := scores.Dims()
	assert.Equal(t, 3, cols, "a multinomial model produces one score column per class")

	proba, err := clf.PredictProba(ctx, x)
	require.NoError(t, err)
	rows, _ := proba.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < 3; j++ {
			sum += proba.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
	}

	pred, err := clf.Predict(ctx, x)
	require.NoError(t, err)
	for i, p := range pred {
		assert.Equal(t, i/10, p, "sample %d", i)
	}

	score, err := clf.Score(ctx, x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLogisticRegression_ArtifactEndsAtRawScores(t *testing.T) {
	x, y := binaryClassification()

	clf := NewLogisticRegression(func(o *LogisticRegressionOptions) {
		o.NBits = 8
	})
	require.NoError(t, clf.Fit(x, y))

	m, err := clf.Artifact()
	require.NoError(t, err)

	assert.False(t, m.SigmoidInGraph(), "the trailing sigmoid is excised before calibration")
	assert.Equal(t, 1, m.OutputWidth())
	assert.Equal(t, 2, m.InputFeatures())
}

func TestLogisticRegression_ProbaConsistentWithScores(t *testing.T) {
	x, y := binaryClassification()
	ctx := context.Background()

	clf := NewLogisticRegression(func(o *LogisticRegressionOptions) {
		o.NBits = 8
	})
	require.NoError(t, clf.Fit(x, y))

	scores, err := clf.DecisionFunction(ctx, x)
	require.NoError(t, err)
	proba, err := clf.PredictProba(ctx, x)
	require.NoError(t, err)

	want := clf.PostProcess(scores, false)
	assert.True(t, mat.Equal(want, proba))
}

func TestLogisticRegression_EncryptedMatchesSimulation(t *testing.T) {
	x, y := binaryClassification()
	ctx := context.Background()

	// The default low bit width keeps the two-feature dot product inside
	// the encryptable budget.
	clf := NewLogisticRegression()
	require.NoError(t, clf.Fit(x, y))

	m, err := clf.Artifact()
	require.NoError(t, err)
	require.LessOrEqual(t, m.MaxBitWidth(), fhe.MaxEncryptableBits)

	clear, err := clf.PredictProba(ctx, x)
	require.NoError(t, err)

	encrypted, err := clf.PredictProba(ctx, x, func(o *PredictOptions) {
		o.ExecuteInFHE = true
	})
	require.NoError(t, err)

	assert.True(t, mat.Equal(clear, encrypted))
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	x, y := binaryClassification()
	ctx := context.Background()

	clf := NewLogisticRegression()
	assert.False(t, clf.IsFitted())
	assert.Empty(t, clf.Classes())

	_, err := clf.DecisionFunction(ctx, x)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = clf.PredictProba(ctx, x)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = clf.Predict(ctx, x)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = clf.Score(ctx, x, y)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = clf.Artifact()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestLogisticRegression_RejectsMultiColumnTargets(t *testing.T) {
	x, _ := binaryClassification()
	rows, _ := x.Dims()
	y := mat.NewDense(rows, 2, nil)

	clf := NewLogisticRegression()
	err := clf.Fit(x, y)

	var sm *ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "target column count", sm.Dim)
}

func TestLogisticRegression_RejectsSingleClass(t *testing.T) {
	x, _ := binaryClassification()
	rows, _ := x.Dims()

	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		y.Set(i, 0, 1)
	}

	clf := NewLogisticRegression()
	err := clf.Fit(x, y)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distinct classes")
	assert.False(t, clf.IsFitted())
}
