package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const (
	BackendDense = "dense"
	BackendONNX  = "onnx"
)

type Config struct {
	Port    string
	Backend string

	NetworkPath      string
	ONNXModelPath    string
	ONNXMetadataPath string
	ONNXLibraryPath  string

	ImagesPath string
	LabelsPath string

	LogLevel    string
	Development bool
}

// ProjectRoot returns the working directory, or the repository root when
// running from cmd/server.
func ProjectRoot() (string, error) {
	execPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(execPath) == "server" {
		execPath = filepath.Join(execPath, "../..")
	}
	return execPath, nil
}

// Load parses args on top of defaults taken from getenv. root anchors the
// default model paths.
func Load(args []string, getenv func(string) string, root string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	models := filepath.Join(root, "models")

	cfg := &Config{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", env("PORT", "8080"), "HTTP port")
	fs.StringVar(&cfg.Backend, "backend", env("BACKEND", BackendDense), "inference backend: dense or onnx")
	fs.StringVar(&cfg.NetworkPath, "network", env("NETWORK_PATH", filepath.Join(models, "network.json")), "dense network JSON file")
	fs.StringVar(&cfg.ONNXModelPath, "onnx-model", env("ONNX_MODEL_PATH", filepath.Join(models, "model_embedded.onnx")), "ONNX model file")
	fs.StringVar(&cfg.ONNXMetadataPath, "onnx-metadata", env("ONNX_METADATA_PATH", filepath.Join(models, "model_metadata.json")), "ONNX model metadata JSON")
	fs.StringVar(&cfg.ONNXLibraryPath, "onnx-lib", env("ONNXRUNTIME_LIB", ""), "onnxruntime shared library (empty for the system default)")
	fs.StringVar(&cfg.ImagesPath, "images", env("MNIST_IMAGES", ""), "IDX image file for sample navigation")
	fs.StringVar(&cfg.LabelsPath, "labels", env("MNIST_LABELS", ""), "IDX label file for sample navigation")
	fs.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&cfg.Development, "dev", false, "human readable development logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend choice and that dataset paths come in pairs.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	switch c.Backend {
	case BackendDense:
		if c.NetworkPath == "" {
			return fmt.Errorf("dense backend needs a network file")
		}
	case BackendONNX:
		if c.ONNXModelPath == "" || c.ONNXMetadataPath == "" {
			return fmt.Errorf("onnx backend needs a model and a metadata file")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if (c.ImagesPath == "") != (c.LabelsPath == "") {
		return fmt.Errorf("images and labels must be given together")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// HasDataset reports whether sample navigation is configured.
func (c *Config) HasDataset() bool {
	return c.ImagesPath != ""
}
