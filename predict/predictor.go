package predict

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/ejri/agritech-hackathon/datastructures"
	"github.com/ejri/agritech-hackathon/modelspec"
	log "github.com/sirupsen/logrus"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
)

// Defaults for graphs produced by retrain.py:
// - images scaled to 299x299 pixels
// - Mean = 128
// - Std = 128
// Graphs based on another architecture get their values from the
// model spec named in model_info.json.
const (
	defaultHeight          = 299
	defaultWidth           = 299
	defaultMean    float32 = 128
	defaultStd     float32 = 128
	defaultInputOp         = "Mul"
	defaultOutputOp        = "final_result"
)

type Predictor interface {
	Load(basePath string) error
	Predict(file string) (datastructures.TFResult, error)
	PredictTopK(file string, k int) ([]datastructures.TFResult, error)
	Info() datastructures.ModelInfo
	NumLabels() int
	Close()
}

type TensorflowPredictor struct {
	labels    []string
	graph     *tf.Graph
	session   *tf.Session
	modelInfo datastructures.ModelInfo

	height   int
	width    int
	mean     float32
	std      float32
	inputOp  string
	outputOp string
}

func NewTensorflowPredictor() *TensorflowPredictor {
	return &TensorflowPredictor{
		height:   defaultHeight,
		width:    defaultWidth,
		mean:     defaultMean,
		std:      defaultStd,
		inputOp:  defaultInputOp,
		outputOp: defaultOutputOp,
	}
}

// Load reads a model directory containing graph.pb, labels.txt and
// model_info.json.
func (p *TensorflowPredictor) Load(basePath string) error {
	//read model info file
	modelInfoFile, err := ioutil.ReadFile(filepath.Join(basePath, "model_info.json"))
	if err != nil {
		log.Debug("[Loading Model] Couldn't read model info: ", err.Error())
		return err
	}

	var modelInfo datastructures.ModelInfo
	err = json.Unmarshal(modelInfoFile, &modelInfo)
	if err != nil {
		log.Debug("[Loading Model] Couldn't parse model info: ", err.Error())
		return err
	}
	p.modelInfo = modelInfo
	p.applyModelInfo(modelInfo)

	//read labels file
	labels, err := loadLabels(filepath.Join(basePath, "labels.txt"))
	if err != nil {
		log.Debug("[Loading Model] Couldn't get labels: ", err.Error())
		return err
	}
	p.labels = labels

	// Load the serialized GraphDef from a file.
	model, err := ioutil.ReadFile(filepath.Join(basePath, "graph.pb"))
	if err != nil {
		log.Debug("[Loading Model] Couldn't read model: ", err.Error())
		return err
	}

	// Construct an in-memory graph from the serialized form.
	p.graph = tf.NewGraph()
	if err := p.graph.Import(model, ""); err != nil {
		log.Debug("[Loading Model] Couldn't construct graph: ", err.Error())
		return err
	}

	// Create a session for inference over graph.
	p.session, err = tf.NewSession(p.graph, nil)
	if err != nil {
		log.Debug("[Loading Model] Couldn't start session: ", err.Error())
		return err
	}

	return nil
}

// applyModelInfo picks up the preprocessing parameters of the
// architecture the graph is based on. Unknown architectures keep the
// retrain.py defaults.
func (p *TensorflowPredictor) applyModelInfo(modelInfo datastructures.ModelInfo) {
	if modelInfo.BasedOn != "" {
		spec, err := modelspec.Get(modelInfo.BasedOn)
		if err != nil {
			log.Debug("[Loading Model] No spec for base model, keeping defaults: ", err.Error())
		} else if imageSpec, ok := spec.(*modelspec.ImageSpec); ok {
			p.height = imageSpec.InputShape[0]
			p.width = imageSpec.InputShape[1]
			p.mean = imageSpec.MeanRGB
			p.std = imageSpec.StddevRGB
		}
	}
	if modelInfo.InputOperation != "" {
		p.inputOp = modelInfo.InputOperation
	}
	if modelInfo.OutputOperation != "" {
		p.outputOp = modelInfo.OutputOperation
	}
}

func (p *TensorflowPredictor) Predict(file string) (datastructures.TFResult, error) {
	var res datastructures.TFResult
	probabilities, err := p.run(file)
	if err != nil {
		return res, err
	}
	res = getBestLabel(probabilities, p.labels)
	return res, nil
}

// PredictTopK returns the k best labels, ordered by descending score.
// k <= 0 selects the default of 5.
func (p *TensorflowPredictor) PredictTopK(file string, k int) ([]datastructures.TFResult, error) {
	probabilities, err := p.run(file)
	if err != nil {
		return nil, err
	}
	results := rankLabels(probabilities, p.labels)
	if k <= 0 {
		k = 5
	}
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (p *TensorflowPredictor) run(file string) ([]float32, error) {
	// For multiple images, session.Run() can be called in a loop (and
	// concurrently). Furthermore, images can be batched together since the
	// model accepts batches of image data as input.
	tensor, err := p.makeTensorFromImage(file)
	if err != nil {
		log.Debug("[Predicting Image Label] Couldn't create tensor from image: ", err.Error())
		return nil, err
	}
	inputOp := p.graph.Operation(p.inputOp)
	outputOp := p.graph.Operation(p.outputOp)
	if inputOp == nil || outputOp == nil {
		err = fmt.Errorf("graph has no operation %q or %q", p.inputOp, p.outputOp)
		log.Debug("[Predicting Image Label] Couldn't run image prediction: ", err.Error())
		return nil, err
	}
	output, err := p.session.Run(
		map[tf.Output]*tf.Tensor{
			inputOp.Output(0): tensor,
		},
		[]tf.Output{
			outputOp.Output(0),
		},
		nil)
	if err != nil {
		log.Debug("[Predicting Image Label] Couldn't run image prediction: ", err.Error())
		return nil, err
	}

	// output[0].Value() is a vector containing probabilities of
	// labels for each image in the "batch". The batch size was 1.
	return output[0].Value().([][]float32)[0], nil
}

func (p *TensorflowPredictor) Info() datastructures.ModelInfo {
	return p.modelInfo
}

func (p *TensorflowPredictor) NumLabels() int {
	return len(p.labels)
}

func (p *TensorflowPredictor) Close() {
	if p.session != nil {
		p.session.Close()
	}
}

func loadLabels(path string) ([]string, error) {
	var labels []string
	file, err := os.Open(path)
	if err != nil {
		log.Debug("[Loading Labels] Couldn't open file: ", err)
		return labels, err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Debug("[Loading Labels] Failed to read labels file: ", err.Error())
		return labels, err
	}

	return labels, nil
}

func getBestLabel(probabilities []float32, labels []string) datastructures.TFResult {
	var result datastructures.TFResult
	if len(probabilities) == 0 || len(labels) == 0 {
		return result
	}

	bestIdx := 0
	for i, p := range probabilities {
		if p > probabilities[bestIdx] {
			bestIdx = i
		}
	}
	if bestIdx >= len(labels) {
		return result
	}

	result.Score = (probabilities[bestIdx] * 100.0)
	result.Label = labels[bestIdx]

	return result
}

func rankLabels(probabilities []float32, labels []string) []datastructures.TFResult {
	results := make([]datastructures.TFResult, 0, len(probabilities))
	for i, p := range probabilities {
		if i >= len(labels) {
			break
		}
		results = append(results, datastructures.TFResult{Label: labels[i], Score: p * 100.0})
	}
	//stable keeps the label file order for equal scores
	sort.Stable(byScore(results))
	return results
}

type byScore []datastructures.TFResult

func (s byScore) Len() int {
	return len(s)
}

func (s byScore) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s byScore) Less(i, j int) bool {
	return s[i].Score > s[j].Score
}

// makeTensorFromImage turns an image file into a tensor suitable for
// feeding the loaded graph.
func (p *TensorflowPredictor) makeTensorFromImage(file string) (*tf.Tensor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	//resize image to the size the model was trained on
	//the image resize library in use might be slow when larger images are used
	//-> (see https://github.com/fawick/speedtest-resize for comparison)
	img = imaging.Resize(img, p.width, p.height, imaging.Box)

	sz := img.Bounds().Size()
	if sz.X != p.width || sz.Y != p.height {
		return nil, fmt.Errorf("input image is required to be %dx%d pixels, was %dx%d", p.width, p.height, sz.X, sz.Y)
	}

	// 4-dimensional input:
	// - 1st dimension: Batch size (the model takes a batch of images as
	//                  input, here the "batch size" is 1)
	// - 2nd dimension: Rows of the image
	// - 3rd dimension: Columns of the row
	// - 4th dimension: Colors of the pixel as (B, G, R)
	// Thus, the shape is [1, height, width, 3]
	ret := make([][][][]float32, 1)
	rows := make([][][]float32, p.height)
	for y := 0; y < p.height; y++ {
		cols := make([][]float32, p.width)
		for x := 0; x < p.width; x++ {
			px := x + img.Bounds().Min.X
			py := y + img.Bounds().Min.Y
			r, g, b, _ := img.At(px, py).RGBA()
			cols[x] = []float32{
				(float32(int(b>>8)) - p.mean) / p.std,
				(float32(int(g>>8)) - p.mean) / p.std,
				(float32(int(r>>8)) - p.mean) / p.std,
			}
		}
		rows[y] = cols
	}
	ret[0] = rows
	return tf.NewTensor(ret)
}
