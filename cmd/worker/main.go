package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"time"

	"github.com/ejri/agritech-hackathon/datastructures"
	"github.com/ejri/agritech-hackathon/predict"
	"github.com/garyburd/redigo/redis"
	raven "github.com/getsentry/raven-go"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

type modelEntry struct {
	Name    string `yaml:"name"`
	Dir     string `yaml:"dir"`
	Workers int    `yaml:"workers"`
}

type workerConfig struct {
	Models []modelEntry `yaml:"models"`
}

func loadWorkerConfig(path string) (*workerConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config workerConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func main() {
	log.SetLevel(log.DebugLevel)

	log.Debug("[Main] Starting prediction worker...")
	redisAddress := flag.String("redis-address", ":6379", "Address to the Redis server")
	redisMaxConnections := flag.Int("redis-max-connections", 10, "Max connections to Redis")
	maxWorkerQueueSize := flag.Int("max-worker-queue-size", 100, "The size of job queue")
	maxWorkers := flag.Int("max-workers", 5, "The number of workers per model")
	modelDir := flag.String("model-dir", "models/default/", "Location of the default model")
	modelsConfig := flag.String("models-config", "", "Optional yaml file with one worker pool per model")

	flag.Parse()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := raven.SetDSN(dsn); err != nil {
			log.Error("[Main] Couldn't set sentry DSN: ", err.Error())
		}
	}

	redisPool := redis.NewPool(func() (redis.Conn, error) {
		c, err := redis.Dial("tcp", *redisAddress)

		if err != nil {
			return nil, err
		}

		return c, err
	}, *redisMaxConnections)
	defer redisPool.Close()

	models := []modelEntry{{Name: "default", Dir: *modelDir, Workers: *maxWorkers}}
	if *modelsConfig != "" {
		config, err := loadWorkerConfig(*modelsConfig)
		if err != nil {
			log.Fatal("[Main] Couldn't read models config: ", err.Error())
		}
		if len(config.Models) > 0 {
			models = config.Models
		}
	}

	log.Debug("[Main] Starting Dispatchers...")

	//one job queue + worker pool per model; the queue a request ends up
	//in is selected by its classification type
	jobQueues := make(map[string]chan predict.Job)
	for _, model := range models {
		workers := model.Workers
		if workers <= 0 {
			workers = *maxWorkers
		}

		jobQueue := make(chan predict.Job, *maxWorkerQueueSize)
		dispatcher := predict.NewDispatcher(jobQueue, workers, model.Dir, redisPool)
		dispatcher.Run()

		if model.Name == "" || model.Name == "default" {
			jobQueues["classification"] = jobQueue
		} else {
			jobQueues[model.Name+"-classification"] = jobQueue
		}
	}

	for {
		var data []byte

		redisConn := redisPool.Get()

		data, err := redis.Bytes(redisConn.Do("LPOP", "predictme"))
		if err != nil {
			redisConn.Close()
			time.Sleep(time.Second) //nothing in queue, sleep for one sec
			continue
		}

		log.Debug("[Main] Got a new request to process")

		var predictionRequest datastructures.PredictionRequest
		err = json.Unmarshal(data, &predictionRequest)
		if err != nil {
			log.Debug("[Main] Couldn't unmarshal: ", err.Error())
			redisConn.Close()
			continue
		}

		work := predict.Job{PredictionRequest: predictionRequest}
		if jobQueue, ok := jobQueues[predictionRequest.Type]; ok {
			jobQueue <- work
		} else {
			log.Debug("[Main] Invalid classification type: ", predictionRequest.Type)
		}

		redisConn.Close()
	}
}
