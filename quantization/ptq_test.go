package quantization

import (
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/quantfit/graph"
)

func TestPostTrainingQuantizer_BitWidthBounds(t *testing.T) {
	for _, nBits := range []int{0, -1, 17} {
		_, err := NewPostTrainingQuantizer(nBits)
		if err == nil {
			t.Errorf("Expected error for %d bits", nBits)
		}
	}

	for _, nBits := range []int{1, 2, 8, 16} {
		if _, err := NewPostTrainingQuantizer(nBits); err != nil {
			t.Errorf("Expected %d bits to be accepted, got %v", nBits, err)
		}
	}
}

func TestPostTrainingQuantizer_EmptyCalibration(t *testing.T) {
	w := mat.NewDense(1, 2, []float64{1, 1})
	g, err := graph.BuildLinear(w, []float64{0}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}

	ptq, err := NewPostTrainingQuantizer(8)
	if err != nil {
		t.Fatalf("NewPostTrainingQuantizer failed: %v", err)
	}

	if _, err := ptq.QuantizeModule(g, nil); err == nil {
		t.Error("Expected error for nil calibration data")
	}
	if _, err := ptq.QuantizeModule(g, &mat.Dense{}); err == nil {
		t.Error("Expected error for empty calibration data")
	}
}

func TestPostTrainingQuantizer_CalibrationWidthMismatch(t *testing.T) {
	w := mat.NewDense(1, 2, []float64{1, 1})
	g, err := graph.BuildLinear(w, []float64{0}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}

	ptq, err := NewPostTrainingQuantizer(8)
	if err != nil {
		t.Fatalf("NewPostTrainingQuantizer failed: %v", err)
	}

	_, err = ptq.QuantizeModule(g, mat.NewDense(2, 4, nil))
	var wm *graph.ErrWidthMismatch
	if !errors.As(err, &wm) {
		t.Fatalf("Expected width mismatch error, got %v", err)
	}
	if wm.Expected != 2 || wm.Actual != 4 {
		t.Errorf("Expected mismatch 2 vs 4, got %d vs %d", wm.Expected, wm.Actual)
	}
}

func TestPostTrainingQuantizer_TemplateUntouched(t *testing.T) {
	w := mat.NewDense(1, 2, []float64{1.5, -2.5})
	g, err := graph.BuildLinear(w, []float64{0.5}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}
	snapshot := g.Clone()

	ptq, err := NewPostTrainingQuantizer(8)
	if err != nil {
		t.Fatalf("NewPostTrainingQuantizer failed: %v", err)
	}
	if _, err := ptq.QuantizeModule(g, mat.NewDense(2, 2, []float64{-1, -1, 1, 1})); err != nil {
		t.Fatalf("QuantizeModule failed: %v", err)
	}

	if len(g.Nodes) != len(snapshot.Nodes) {
		t.Fatalf("Template node count changed: %d vs %d", len(g.Nodes), len(snapshot.Nodes))
	}
	for i := range g.Nodes {
		if g.Nodes[i].Weights != nil && !mat.Equal(g.Nodes[i].Weights, snapshot.Nodes[i].Weights) {
			t.Errorf("Template weights of node %d changed", i)
		}
	}
}

func TestPostTrainingQuantizer_UnsignedInput(t *testing.T) {
	w := mat.NewDense(1, 2, []float64{1, 1})
	g, err := graph.BuildLinear(w, []float64{0}, false)
	if err != nil {
		t.Fatalf("BuildLinear failed: %v", err)
	}

	ptq, err := NewPostTrainingQuantizer(8, func(o *Options) {
		o.Signed = false
	})
	if err != nil {
		t.Fatalf("NewPostTrainingQuantizer failed: %v", err)
	}

	m, err := ptq.QuantizeModule(g, mat.NewDense(2, 2, []float64{0, 0, 4, 4}))
	if err != nil {
		t.Fatalf("QuantizeModule failed: %v", err)
	}

	p := m.InputParams()
	if p.Signed {
		t.Error("Expected unsigned input params")
	}
	if p.QMin() != 0 || p.QMax() != 255 {
		t.Errorf("Expected range [0, 255], got [%d, %d]", p.QMin(), p.QMax())
	}
}

func TestSigmoidTable_CoversAllLevels(t *testing.T) {
	in := FromRange(-8, 8, 4, true)
	out := FromRange(0, 1, 4, false)

	lut := sigmoidTable(in, out)
	if len(lut) != in.Levels() {
		t.Fatalf("Expected %d entries, got %d", in.Levels(), len(lut))
	}

	for i := 1; i < len(lut); i++ {
		if lut[i] < lut[i-1] {
			t.Errorf("Entry %d breaks monotonicity: %d after %d", i, lut[i], lut[i-1])
		}
	}
	if lut[0] != out.QMin() {
		t.Errorf("Expected saturated low end %d, got %d", out.QMin(), lut[0])
	}
	if lut[len(lut)-1] != out.QMax() {
		t.Errorf("Expected saturated high end %d, got %d", out.QMax(), lut[len(lut)-1])
	}
}

func TestPostTrainingQuantizer_ErrorNamesMissingTensor(t *testing.T) {
	// A graph with an unconnected node fails validation before calibration.
	g := &graph.Graph{
		InputName:  "input",
		OutputName: "output",
		Features:   2,
		Nodes: []graph.Node{
			{Op: graph.OpAdd, Input: "elsewhere", Output: "output", Bias: []float64{0, 0}},
		},
	}

	ptq, err := NewPostTrainingQuantizer(8)
	if err != nil {
		t.Fatalf("NewPostTrainingQuantizer failed: %v", err)
	}

	_, err = ptq.QuantizeModule(g, mat.NewDense(1, 2, []float64{1, 2}))
	if err == nil {
		t.Fatal("Expected error for disconnected graph")
	}
	if !strings.Contains(err.Error(), "elsewhere") {
		t.Errorf("Expected error to name the dangling tensor, got %q", err.Error())
	}
}
