// Package api wires the HTTP surface: the browser upload form, the
// asynchronous prediction queue and a few read-only endpoints for
// models and upload history.
package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ejri/agritech-hackathon/datastructures"
	"github.com/ejri/agritech-hackathon/modelspec"
	"github.com/ejri/agritech-hackathon/predict"
	"github.com/ejri/agritech-hackathon/storage"
	"github.com/garyburd/redigo/redis"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

// scoreThreshold filters near-zero labels out of the results page.
// Scores are percentages.
const scoreThreshold = 20

type API struct {
	predictor      predict.Predictor
	store          *storage.Store
	redisPool      *redis.Pool
	predictionsDir string
	imagesDir      string
}

func New(predictor predict.Predictor, store *storage.Store, redisPool *redis.Pool,
	predictionsDir string, imagesDir string) *API {
	return &API{
		predictor:      predictor,
		store:          store,
		redisPool:      redisPool,
		predictionsDir: predictionsDir,
		imagesDir:      imagesDir,
	}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router(templatesGlob string) *gin.Engine {
	router := gin.Default()
	router.LoadHTMLGlob(templatesGlob)

	router.GET("/", a.Index)
	router.POST("/upload", a.Upload)

	router.OPTIONS("/v1/predict", func(c *gin.Context) {
		corsHeaders(c)
		c.JSON(http.StatusOK, struct{}{})
	})
	router.POST("/v1/predict", a.EnqueuePrediction)
	router.GET("/v1/predict/:uuid", a.PredictionStatus)

	router.GET("/v1/models", a.ListModels)
	router.GET("/v1/models/:name", a.ShowModel)
	router.GET("/v1/uploads", a.ListUploads)
	router.GET("/v1/uploads/stats", a.UploadStats)

	return router
}

func corsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-PINGOTHER, X-File-Name, Cache-Control")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
}

func (a *API) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{})
}

// Upload takes the browser form's images, stores them in the images
// directory and renders the classification of the last one.
func (a *API) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(400, gin.H{"error": "Couldn't parse upload"})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}

	var lastSaved string
	var lastName string
	var lastSize int64
	for _, header := range files {
		name := filepath.Base(header.Filename)
		if name == "" || name == "." || name == ".." {
			c.JSON(400, gin.H{"error": "Invalid filename"})
			return
		}

		dest := filepath.Join(a.imagesDir, name)
		if err := c.SaveUploadedFile(header, dest); err != nil {
			log.Debug("[Upload] Couldn't save file: ", err.Error())
			c.JSON(500, gin.H{"error": "Couldn't save file - please try again later"})
			return
		}
		lastSaved = dest
		lastName = name
		lastSize = header.Size
	}

	if a.predictor == nil {
		c.JSON(500, gin.H{"error": "No model loaded"})
		return
	}

	//only the last image of the form is classified, the others are
	//just kept on disk
	results, err := a.predictor.PredictTopK(lastSaved, a.predictor.NumLabels())
	if err != nil {
		log.Debug("[Upload] Couldn't classify image: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't classify image - please try again later"})
		return
	}

	scores := make([]datastructures.TFResult, 0, len(results))
	for _, res := range results {
		if res.Score > scoreThreshold {
			scores = append(scores, res)
		}
	}

	upload := &storage.Upload{
		Filename:     lastSaved,
		OrigFilename: lastName,
		Format:       strings.ToLower(strings.TrimPrefix(filepath.Ext(lastName), ".")),
		SizeBytes:    lastSize,
		CreatedAt:    time.Now().UTC(),
	}
	if len(results) > 0 {
		upload.Label = results[0].Label
		upload.Score = results[0].Score
	}
	if _, err := a.store.Insert(upload); err != nil {
		//history is best-effort, still show the result
		log.Debug("[Upload] Couldn't store upload: ", err.Error())
	}

	c.HTML(http.StatusOK, "complete.html", gin.H{
		"name":   lastName,
		"scores": scores,
	})
}

// EnqueuePrediction accepts an image and queues it for one of the
// prediction workers. The response carries the request uuid in the
// Location header; clients poll PredictionStatus with it.
func (a *API) EnqueuePrediction(c *gin.Context) {
	corsHeaders(c)
	c.Writer.Header().Set("Access-Control-Expose-Headers", "Location")

	classificationType := c.PostForm("classification_type")

	_, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}

	u, err := uuid.NewV4()
	if err != nil {
		log.Debug("[Predicting] Couldn't create uuid: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}
	imageUuid := u.String()

	filename := filepath.Join(a.predictionsDir, imageUuid)
	if err := c.SaveUploadedFile(header, filename); err != nil {
		log.Debug("[Predicting] Couldn't save file: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	redisConn := a.redisPool.Get()
	defer redisConn.Close()

	//add a prediction request to the REDIS 'predictme' queue
	var predictionRequest datastructures.PredictionRequest
	predictionRequest.Uuid = imageUuid
	predictionRequest.Created = int64(time.Now().Unix())
	predictionRequest.Filename = filename

	if classificationType == "" || classificationType == "default" {
		predictionRequest.Type = "classification"
	} else {
		predictionRequest.Type = classificationType + "-classification"
	}

	serialized, err := json.Marshal(predictionRequest)
	if err != nil {
		log.Debug("[Predicting] Couldn't accept request: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	_, err = redisConn.Do("RPUSH", "predictme", serialized)
	if err != nil {
		log.Debug("[Predicting] Couldn't accept request: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	c.Writer.Header().Set("Location", imageUuid)
	c.JSON(202, gin.H{})
}

// PredictionStatus reports the outcome of a queued prediction. An
// empty object means the result isn't there (yet), either because the
// workers are still busy or because the uuid never existed.
func (a *API) PredictionStatus(c *gin.Context) {
	corsHeaders(c)

	requestUuid := c.Param("uuid")
	key := "predict" + requestUuid

	redisConn := a.redisPool.Get()
	defer redisConn.Close()

	ok, err := redis.Bool(redisConn.Do("EXISTS", key))
	if err != nil {
		log.Debug("[Predicting] Couldn't check status of request: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't check status of request - please try again later"})
		return
	}

	if !ok {
		c.JSON(200, gin.H{})
		return
	}

	data, err := redis.Bytes(redisConn.Do("GET", key))
	if err != nil {
		log.Debug("[Predicting] Couldn't get status of request: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't get status of request - please try again later"})
		return
	}

	var predictionResult datastructures.PredictionResult
	err = json.Unmarshal(data, &predictionResult)
	if err != nil {
		log.Debug("[Predicting] Couldn't unmarshal: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't get status of request - please try again later"})
		return
	}

	c.JSON(http.StatusOK, datastructures.PredictMeResult{
		Label:     predictionResult.Result.Label,
		Score:     predictionResult.Result.Score,
		ModelInfo: predictionResult.ModelInfo,
	})
}

// ListModels reports the model loaded for the form flow plus all
// known model specs, grouped by task.
func (a *API) ListModels(c *gin.Context) {
	corsHeaders(c)

	loaded := []gin.H{}
	if a.predictor != nil {
		loaded = append(loaded, gin.H{
			"name":   "default",
			"info":   a.predictor.Info(),
			"labels": a.predictor.NumLabels(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"loaded": loaded,
		"specs": gin.H{
			"image_classification": modelspec.ImageClassificationModels,
			"text_classification":  modelspec.TextClassificationModels,
			"question_answer":      modelspec.QuestionAnswerModels,
		},
	})
}

// ShowModel reports the loaded model (name "default") or one of the
// registered model specs.
func (a *API) ShowModel(c *gin.Context) {
	corsHeaders(c)

	name := c.Param("name")
	if name == "default" && a.predictor != nil {
		info := a.predictor.Info()
		res := gin.H{"name": name, "info": info, "labels": a.predictor.NumLabels()}
		if spec, err := modelspec.Get(info.BasedOn); err == nil {
			res["spec"] = spec
		}
		c.JSON(http.StatusOK, res)
		return
	}

	spec, err := modelspec.Get(name)
	if err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": spec.Name(), "spec": spec})
}

func (a *API) ListUploads(c *gin.Context) {
	corsHeaders(c)

	filter := storage.Filter{
		Label:  c.Query("label"),
		Format: c.Query("format"),
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(400, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			c.JSON(400, gin.H{"error": "Invalid offset"})
			return
		}
		filter.Offset = n
	}

	uploads, err := a.store.List(filter)
	if err != nil {
		log.Debug("[Uploads] Couldn't list uploads: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't list uploads - please try again later"})
		return
	}

	total, err := a.store.Count(filter)
	if err != nil {
		log.Debug("[Uploads] Couldn't count uploads: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't list uploads - please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": uploads, "total": total})
}

func (a *API) UploadStats(c *gin.Context) {
	corsHeaders(c)

	stats, err := a.store.Stats()
	if err != nil {
		log.Debug("[Uploads] Couldn't get upload stats: ", err.Error())
		c.JSON(500, gin.H{"error": "Couldn't get upload stats - please try again later"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
