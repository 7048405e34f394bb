package predict

import (
	"encoding/json"
	"os"

	"github.com/ejri/agritech-hackathon/datastructures"
	"github.com/garyburd/redigo/redis"
	raven "github.com/getsentry/raven-go"
	log "github.com/sirupsen/logrus"
)

// Job holds the attributes needed to perform unit of work.
type Job struct {
	PredictionRequest datastructures.PredictionRequest
}

// NewWorker creates takes a numeric id and a channel w/ worker pool.
func NewWorker(id int, workerPool chan chan Job, modelDir string, redisPool *redis.Pool) Worker {
	return Worker{
		id:         id,
		jobQueue:   make(chan Job),
		workerPool: workerPool,
		quitChan:   make(chan bool),
		modelDir:   modelDir,
		redisPool:  redisPool,
	}
}

type Worker struct {
	id         int
	jobQueue   chan Job
	workerPool chan chan Job
	quitChan   chan bool
	modelDir   string
	redisPool  *redis.Pool
}

func (w Worker) start() {
	log.Debug("[Worker] Worker ", w.id, " starting")
	predictor := NewTensorflowPredictor()
	if err := predictor.Load(w.modelDir); err != nil {
		log.Error("[Worker] Worker ", w.id, " couldn't load model ", w.modelDir, ": ", err.Error())
		raven.CaptureError(err, nil)
		return
	}

	go func() {
		for {
			// Add my jobQueue to the worker pool.
			w.workerPool <- w.jobQueue

			select {
			case job := <-w.jobQueue:
				// Dispatcher has added a job to my jobQueue.
				tfResult, err := predictor.Predict(job.PredictionRequest.Filename)
				if err == nil {
					redisConn := w.redisPool.Get()

					var predictionResult datastructures.PredictionResult
					predictionResult.Uuid = job.PredictionRequest.Uuid
					predictionResult.Result = tfResult
					predictionResult.ModelInfo = predictor.modelInfo

					serialized, err := json.Marshal(predictionResult)
					if err != nil {
						log.Debug("[Worker] Couldn't marshal prediction result: ", err.Error())
					} else {
						//store result with an expiration time of 1hr...it doesn't make sense to store it longer
						//than that.
						_, err = redisConn.Do("SETEX", ("predict" + job.PredictionRequest.Uuid), 3600, serialized)
						if err != nil {
							log.Debug("[Worker] Couldn't store prediction result: ", err.Error())
						} else { //successfully predicted, remove file
							err = os.Remove(job.PredictionRequest.Filename)
							if err != nil {
								log.Debug("[Worker] Couldn't remove file ", err.Error())
							}
						}
					}
					redisConn.Close()
				} else {
					log.Debug("[Worker] Couln't predict: ", err.Error())
					raven.CaptureError(err, nil)
				}

			case <-w.quitChan:
				// We have been asked to stop.
				log.Debug("[Worker] Worker ", w.id, " stopping")
				return
			}
		}
	}()
}

func (w Worker) stop() {
	go func() {
		w.quitChan <- true
	}()
}

// NewDispatcher creates, and returns a new Dispatcher object.
func NewDispatcher(jobQueue chan Job, maxWorkers int, modelDir string, redisPool *redis.Pool) *Dispatcher {
	workerPool := make(chan chan Job, maxWorkers)

	return &Dispatcher{
		jobQueue:   jobQueue,
		maxWorkers: maxWorkers,
		workerPool: workerPool,
		modelDir:   modelDir,
		redisPool:  redisPool,
	}
}

type Dispatcher struct {
	workerPool chan chan Job
	maxWorkers int
	jobQueue   chan Job
	modelDir   string
	redisPool  *redis.Pool
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i+1, d.workerPool, d.modelDir, d.redisPool)
		worker.start()
	}

	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func() {
				workerJobQueue := <-d.workerPool
				workerJobQueue <- job
			}()
		}
	}
}
