package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ejri/agritech-hackathon/api"
	"github.com/ejri/agritech-hackathon/predict"
	"github.com/ejri/agritech-hackathon/storage"
	"github.com/garyburd/redigo/redis"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetLevel(log.DebugLevel)

	releaseMode := flag.Bool("release", false, "Run in release mode")
	listenAddress := flag.String("listen", ":4555", "Address the webserver listens on")
	redisAddress := flag.String("redis-address", ":6379", "Address to the Redis server")
	redisMaxConnections := flag.Int("redis-max-connections", 50, "Max connections to Redis")
	predictionsDir := flag.String("predictions-dir", "predictions/", "Location of the temporary saved images for predictions")
	imagesDir := flag.String("images-dir", "images/", "Location of the images uploaded via the form")
	modelDir := flag.String("model-dir", "models/default/", "Location of the model used by the upload form")
	templatesDir := flag.String("templates-dir", "templates", "Location of the HTML templates")
	dbPath := flag.String("db", "uploads.db", "Location of the uploads database")

	flag.Parse()
	if *releaseMode {
		fmt.Printf("[Main] Starting gin in release mode!\n")
		gin.SetMode(gin.ReleaseMode)
	}

	//creating the image directories if they don't already exist
	//as predictions are temporary the directory might not already exist (e.q if predictions are stored in /tmp and server reboots)
	for _, dir := range []string{*predictionsDir, *imagesDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			log.Debug("[Main] Creating directory ", dir, " as it doesn't exist")
			err := os.MkdirAll(dir, 0755)
			if err != nil {
				log.Debug("[Main] Couldn't create directory: ", err.Error())
				os.Exit(1)
			}
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

	store, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatal("[Main] Couldn't open uploads database: ", err.Error())
	}
	defer store.Close()

	var predictor predict.Predictor
	tensorflowPredictor := predict.NewTensorflowPredictor()
	if err := tensorflowPredictor.Load(*modelDir); err != nil {
		log.Error("[Main] Couldn't load model, the upload form won't classify: ", err.Error())
	} else {
		predictor = tensorflowPredictor
		defer tensorflowPredictor.Close()
	}

	a := api.New(predictor, store, redisPool, *predictionsDir, *imagesDir)
	router := a.Router(filepath.Join(*templatesDir, "*"))

	router.Run(*listenAddress)
}
