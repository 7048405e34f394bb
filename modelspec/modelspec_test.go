package modelspec

import (
	"testing"
)

func TestGetByName(t *testing.T) {
	spec, err := Get("mobilenet_v2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if spec.Name() != "mobilenet_v2" {
		t.Errorf("Name() = %s, want mobilenet_v2", spec.Name())
	}

	imageSpec, ok := spec.(*ImageSpec)
	if !ok {
		t.Fatalf("expected an *ImageSpec, got %T", spec)
	}
	if imageSpec.InputShape[0] != 224 || imageSpec.InputShape[1] != 224 {
		t.Errorf("unexpected input shape: %v", imageSpec.InputShape)
	}
	if imageSpec.MeanRGB != 0 || imageSpec.StddevRGB != 255 {
		t.Errorf("unexpected normalization: mean %v std %v", imageSpec.MeanRGB, imageSpec.StddevRGB)
	}
}

func TestGetUnknownName(t *testing.T) {
	if _, err := Get("alexnet"); err == nil {
		t.Error("expected an error for an unknown model name")
	}
}

func TestGetPassesSpecsThrough(t *testing.T) {
	original, err := Get("resnet_50")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	same, err := Get(original)
	if err != nil {
		t.Fatalf("get with spec: %v", err)
	}
	if same != original {
		t.Error("an already built spec should be passed through unchanged")
	}
}

func TestGetAcceptsConstructors(t *testing.T) {
	spec, err := Get(Constructor(EfficientNetLite4))
	if err != nil {
		t.Fatalf("get with constructor: %v", err)
	}
	if spec.Name() != "efficientnet_lite4" {
		t.Errorf("Name() = %s, want efficientnet_lite4", spec.Name())
	}

	spec, err = Get(MobileBertQA)
	if err != nil {
		t.Fatalf("get with func: %v", err)
	}
	if spec.Name() != "mobilebert_qa" {
		t.Errorf("Name() = %s, want mobilebert_qa", spec.Name())
	}
}

func TestGetRejectsUnsupportedTypes(t *testing.T) {
	if _, err := Get(42); err == nil {
		t.Error("expected an error for an unsupported argument type")
	}
}

func TestTaskListsAreRegistered(t *testing.T) {
	lists := [][]string{ImageClassificationModels, TextClassificationModels, QuestionAnswerModels}
	for _, list := range lists {
		for _, name := range list {
			if _, err := Get(name); err != nil {
				t.Errorf("model %s is listed but not registered", name)
			}
		}
	}

	if len(ImageClassificationModels) != 7 {
		t.Errorf("expected 7 image classification models, got %d", len(ImageClassificationModels))
	}
	if len(Names()) != 14 {
		t.Errorf("expected 14 registered models, got %d", len(Names()))
	}
}

func TestEfficientNetInputShapes(t *testing.T) {
	shapes := map[string]int{
		"efficientnet_lite0": 224,
		"efficientnet_lite1": 240,
		"efficientnet_lite2": 260,
		"efficientnet_lite3": 280,
		"efficientnet_lite4": 300,
	}
	for name, size := range shapes {
		spec, err := Get(name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		imageSpec := spec.(*ImageSpec)
		if imageSpec.InputShape[0] != size || imageSpec.InputShape[1] != size {
			t.Errorf("%s input shape = %v, want %dx%d", name, imageSpec.InputShape, size, size)
		}
	}
}

func TestBertVariants(t *testing.T) {
	spec, err := Get("bert_classifier")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	classifier := spec.(*BertClassifierSpec)
	if classifier.SeqLen != 128 || !classifier.DoLowerCase {
		t.Errorf("unexpected bert_classifier defaults: %+v", classifier)
	}

	spec, err = Get("mobilebert_qa_squad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	squad := spec.(*BertQASpec)
	if squad.SeqLen != 384 {
		t.Errorf("SeqLen = %d, want 384", squad.SeqLen)
	}
	if !squad.InitFromSquadModel {
		t.Error("mobilebert_qa_squad should start from the squad checkpoint")
	}

	spec, err = Get("mobilebert_qa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if spec.(*BertQASpec).InitFromSquadModel {
		t.Error("mobilebert_qa should not start from the squad checkpoint")
	}

	spec, err = Get("average_word_vec")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	wordvec := spec.(*AverageWordVecSpec)
	if wordvec.NumWords != 10000 || wordvec.WordvecDim != 16 || wordvec.SeqLen != 256 {
		t.Errorf("unexpected average_word_vec defaults: %+v", wordvec)
	}
}
