package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/dataset"
	"github.com/Brownie44l1/digit-api/internal/handlers"
	"github.com/Brownie44l1/digit-api/internal/model"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	root, err := config.ProjectRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.Args[1:], os.Getenv, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var modelServer *model.Server
	switch cfg.Backend {
	case config.BackendONNX:
		logger.Infof("Loading model from: %s", cfg.ONNXModelPath)
		modelServer, err = model.NewONNXServer(cfg.ONNXModelPath, cfg.ONNXMetadataPath, cfg.ONNXLibraryPath, logger)
	default:
		logger.Infof("Loading network from: %s", cfg.NetworkPath)
		modelServer, err = model.NewDenseServer(cfg.NetworkPath, logger)
	}
	if err != nil {
		logger.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	var samples *dataset.Dataset
	if cfg.HasDataset() {
		samples, err = dataset.LoadIDX(cfg.ImagesPath, cfg.LabelsPath)
		if err != nil {
			logger.Fatalf("Failed to load dataset: %v", err)
		}
		if samples.Width() != modelServer.Metadata.InputSize() {
			logger.Fatalf("Dataset images have %d pixels, model expects %d", samples.Width(), modelServer.Metadata.InputSize())
		}
		logger.Infof("Dataset loaded: %d samples", samples.Len())
	}

	handler := handlers.NewHandler(modelServer, samples, logger)

	http.HandleFunc("/health", enableCORS(handler.Health))
	http.HandleFunc("/predict", enableCORS(handler.Predict))
	http.HandleFunc("/predict/image", enableCORS(handler.PredictFromImage))
	http.HandleFunc("/clear", enableCORS(handler.Clear))
	http.HandleFunc("/samples", enableCORS(handler.Sample))
	http.HandleFunc("/samples/image", enableCORS(handler.SampleImage))

	logger.Infof("Server starting on port %s", cfg.Port)
	logger.Infof("Classes: %v", modelServer.Metadata.Classes)
	logger.Info("Endpoints:")
	logger.Info("  GET  /health - Health check")
	logger.Info("  POST /predict - Raw array prediction")
	logger.Info("  POST /predict/image - Predict from image upload")
	logger.Info("  POST /clear - Predict on a blank canvas")
	if samples != nil {
		logger.Info("  GET  /samples?index=N&step=next|prev|nextwrong - Dataset sample with prediction")
		logger.Info("  GET  /samples/image?index=N - Dataset sample as PNG")
	}

	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
