package quantization

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
)

func TestCalibrator_Range(t *testing.T) {
	w := mat.NewDense(1, 2, []float64{1, -1})
	g, err := graph.BuildLinear(w, []float64{0.5}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}

	x := mat.NewDense(2, 2, []float64{
		0, 0,
		2, 4,
	})

	cal := NewCalibrator()
	if err := cal.ObserveGraph(g, x); err != nil {
		t.Fatalf("ObserveGraph failed: %v", err)
	}

	min, max, err := cal.Range(graph.TensorInput)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if min != 0 || max != 4 {
		t.Errorf("Expected input range [0, 4], got [%f, %f]", min, max)
	}

	min, max, err = cal.Range(graph.TensorOutput)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if min != -1.5 || max != 0.5 {
		t.Errorf("Expected output range [-1.5, 0.5], got [%f, %f]", min, max)
	}
}

func TestCalibrator_SecondBatchWidensRange(t *testing.T) {
	w := mat.NewDense(1, 1, []float64{1})
	g, err := graph.BuildLinear(w, []float64{0}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}

	cal := NewCalibrator()
	if err := cal.ObserveGraph(g, mat.NewDense(1, 1, []float64{1})); err != nil {
		t.Fatalf("ObserveGraph failed: %v", err)
	}
	if err := cal.ObserveGraph(g, mat.NewDense(1, 1, []float64{-3})); err != nil {
		t.Fatalf("ObserveGraph failed: %v", err)
	}

	min, max, err := cal.Range(graph.TensorInput)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if min != -3 || max != 1 {
		t.Errorf("Expected range [-3, 1], got [%f, %f]", min, max)
	}
}

func TestCalibrator_MissingTensor(t *testing.T) {
	cal := NewCalibrator()

	_, _, err := cal.Range("nope")
	if err == nil {
		t.Fatal("Expected error for unobserved tensor")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected error to name the tensor, got %q", err.Error())
	}
}
