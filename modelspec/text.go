package modelspec

const (
	bertURI       = "https://tfhub.dev/tensorflow/bert_en_uncased_L-12_H-768_A-12/1"
	mobileBertURI = "https://tfhub.dev/google/mobilebert/uncased_L-24_H-128_B-512_A-4_F-4_OPT/1"
)

// AverageWordVecSpec describes the lightweight bag-of-words text
// classifier: embed each word, average the embeddings.
type AverageWordVecSpec struct {
	name       string
	NumWords   int  `json:"num_words"`
	WordvecDim int  `json:"wordvec_dim"`
	SeqLen     int  `json:"seq_len"`
	Lowercase  bool `json:"lowercase"`
}

func (s *AverageWordVecSpec) Name() string {
	return s.name
}

func AverageWordVec() Spec {
	return &AverageWordVecSpec{
		name:       "average_word_vec",
		NumWords:   10000,
		WordvecDim: 16,
		SeqLen:     256,
		Lowercase:  true,
	}
}

// BertSpec describes a BERT encoder.
type BertSpec struct {
	name        string
	URI         string  `json:"uri"`
	SeqLen      int     `json:"seq_len"`
	DoLowerCase bool    `json:"do_lower_case"`
	DropoutRate float32 `json:"dropout_rate"`
}

func (s *BertSpec) Name() string {
	return s.name
}

func Bert() Spec {
	return &BertSpec{
		name:        "bert",
		URI:         bertURI,
		SeqLen:      128,
		DoLowerCase: true,
		DropoutRate: 0.1,
	}
}

// BertClassifierSpec is a BERT encoder with a classification head.
type BertClassifierSpec struct {
	BertSpec
}

func BertClassifier() Spec {
	return &BertClassifierSpec{
		BertSpec{
			name:        "bert_classifier",
			URI:         bertURI,
			SeqLen:      128,
			DoLowerCase: true,
			DropoutRate: 0.1,
		},
	}
}

func MobileBertClassifier() Spec {
	return &BertClassifierSpec{
		BertSpec{
			name:        "mobilebert_classifier",
			URI:         mobileBertURI,
			SeqLen:      128,
			DoLowerCase: true,
			DropoutRate: 0.1,
		},
	}
}

// BertQASpec is a BERT encoder with a span-prediction head for
// question answering.
type BertQASpec struct {
	BertSpec
	InitFromSquadModel bool `json:"init_from_squad_model"`
}

func BertQA() Spec {
	return &BertQASpec{
		BertSpec: BertSpec{
			name:        "bert_qa",
			URI:         bertURI,
			SeqLen:      384,
			DoLowerCase: true,
			DropoutRate: 0.1,
		},
	}
}

func MobileBertQA() Spec {
	return &BertQASpec{
		BertSpec: BertSpec{
			name:        "mobilebert_qa",
			URI:         mobileBertURI,
			SeqLen:      384,
			DoLowerCase: true,
			DropoutRate: 0.1,
		},
	}
}

func MobileBertQASquad() Spec {
	return &BertQASpec{
		BertSpec: BertSpec{
			name:        "mobilebert_qa_squad",
			URI:         mobileBertURI,
			SeqLen:      384,
			DoLowerCase: true,
			DropoutRate: 0.1,
		},
		InitFromSquadModel: true,
	}
}
