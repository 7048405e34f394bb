package predict

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ejri/agritech-hackathon/datastructures"
)

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := ioutil.WriteFile(path, []byte("apple\ncherry\nlemon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	labels, err := loadLabels(path)
	if err != nil {
		t.Fatalf("load labels: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}
	if labels[0] != "apple" || labels[2] != "lemon" {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestLoadLabelsMissingFile(t *testing.T) {
	if _, err := loadLabels(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected an error for a missing labels file")
	}
}

func TestGetBestLabel(t *testing.T) {
	labels := []string{"apple", "cherry", "lemon"}

	res := getBestLabel([]float32{0.1, 0.7, 0.2}, labels)
	if res.Label != "cherry" {
		t.Errorf("Label = %s, want cherry", res.Label)
	}
	if res.Score != 70 {
		t.Errorf("Score = %v, want 70", res.Score)
	}

	//an empty probability vector yields the zero result
	res = getBestLabel(nil, labels)
	if res.Label != "" || res.Score != 0 {
		t.Errorf("expected zero result, got %+v", res)
	}

	//probabilities past the label list are ignored
	res = getBestLabel([]float32{0.1, 0.2, 0.3, 0.9}, labels)
	if res.Label != "" {
		t.Errorf("expected zero result for an out of range best index, got %+v", res)
	}
}

func TestRankLabels(t *testing.T) {
	labels := []string{"apple", "cherry", "lemon"}

	results := rankLabels([]float32{0.1, 0.7, 0.2}, labels)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	want := []datastructures.TFResult{
		{Label: "cherry", Score: 70},
		{Label: "lemon", Score: 20},
		{Label: "apple", Score: 10},
	}
	for i, res := range want {
		if results[i].Label != res.Label {
			t.Errorf("result %d = %s, want %s", i, results[i].Label, res.Label)
		}
	}

	//a probability vector longer than the label list is truncated
	results = rankLabels([]float32{0.5, 0.3, 0.1, 0.1}, labels)
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestApplyModelInfoSpec(t *testing.T) {
	p := NewTensorflowPredictor()
	p.applyModelInfo(datastructures.ModelInfo{BasedOn: "efficientnet_lite4"})

	if p.height != 300 || p.width != 300 {
		t.Errorf("input size = %dx%d, want 300x300", p.width, p.height)
	}
	if p.mean != 0 || p.std != 255 {
		t.Errorf("normalization = (%v, %v), want (0, 255)", p.mean, p.std)
	}
	if p.inputOp != "Mul" || p.outputOp != "final_result" {
		t.Errorf("operations changed unexpectedly: %s, %s", p.inputOp, p.outputOp)
	}
}

func TestApplyModelInfoUnknownBase(t *testing.T) {
	p := NewTensorflowPredictor()
	p.applyModelInfo(datastructures.ModelInfo{BasedOn: "some_custom_net"})

	//unknown architectures keep the retrain.py defaults
	if p.height != 299 || p.width != 299 || p.mean != 128 || p.std != 128 {
		t.Errorf("expected retrain.py defaults, got %dx%d (%v, %v)", p.width, p.height, p.mean, p.std)
	}
}

func TestApplyModelInfoOperationOverrides(t *testing.T) {
	p := NewTensorflowPredictor()
	p.applyModelInfo(datastructures.ModelInfo{
		InputOperation:  "input",
		OutputOperation: "MobilenetV2/Predictions/Reshape_1",
	})

	if p.inputOp != "input" {
		t.Errorf("inputOp = %s, want input", p.inputOp)
	}
	if p.outputOp != "MobilenetV2/Predictions/Reshape_1" {
		t.Errorf("outputOp = %s", p.outputOp)
	}
}
