// Package modelspec describes the pretrained model architectures the
// classifier knows about. Specs carry the preprocessing parameters
// (input shape, pixel normalization) that a graph trained on that
// architecture expects.
package modelspec

import (
	"fmt"
	"sort"
)

// Spec describes a supported model architecture. Concrete specs are
// *ImageSpec, *AverageWordVecSpec, *BertSpec and its variants.
type Spec interface {
	Name() string
}

// Constructor builds a fresh spec with the architecture's defaults.
type Constructor func() Spec

var registry = map[string]Constructor{
	"efficientnet_lite0":    EfficientNetLite0,
	"efficientnet_lite1":    EfficientNetLite1,
	"efficientnet_lite2":    EfficientNetLite2,
	"efficientnet_lite3":    EfficientNetLite3,
	"efficientnet_lite4":    EfficientNetLite4,
	"mobilenet_v2":          MobileNetV2,
	"resnet_50":             ResNet50,
	"average_word_vec":      AverageWordVec,
	"bert":                  Bert,
	"bert_classifier":       BertClassifier,
	"bert_qa":               BertQA,
	"mobilebert_classifier": MobileBertClassifier,
	"mobilebert_qa":         MobileBertQA,
	"mobilebert_qa_squad":   MobileBertQASquad,
}

// Model names grouped by task.
var (
	ImageClassificationModels = []string{
		"efficientnet_lite0",
		"efficientnet_lite1",
		"efficientnet_lite2",
		"efficientnet_lite3",
		"efficientnet_lite4",
		"mobilenet_v2",
		"resnet_50",
	}
	TextClassificationModels = []string{
		"bert_classifier",
		"average_word_vec",
		"mobilebert_classifier",
	}
	QuestionAnswerModels = []string{
		"bert_qa",
		"mobilebert_qa",
		"mobilebert_qa_squad",
	}
)

// Get resolves a model spec. It accepts a registered model name, a
// Constructor, or an already built Spec (which is passed through).
func Get(specOrName interface{}) (Spec, error) {
	switch v := specOrName.(type) {
	case string:
		ctor, ok := registry[v]
		if !ok {
			return nil, fmt.Errorf("unknown model spec %q", v)
		}
		return ctor(), nil
	case Constructor:
		return v(), nil
	case func() Spec:
		return v(), nil
	case Spec:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported model spec type %T", specOrName)
}

// Names lists all registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
