package telemetry

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Logger is the global logger instance
var Logger *zap.Logger

func init() {
	var err error
	Logger, err = zap.NewProductionConfig().Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
}

// LogConfig selects where logs go and how verbose they are.
type LogConfig struct {
	Level            string
	OutputPaths      []string
	ErrorOutputPaths []string
}

// Configure rebuilds Logger from cfg. Directories of file outputs are
// created first.
func Configure(cfg LogConfig) error {
	config := zap.NewProductionConfig()
	if len(cfg.OutputPaths) > 0 {
		config.OutputPaths = cfg.OutputPaths
	}
	if len(cfg.ErrorOutputPaths) > 0 {
		config.ErrorOutputPaths = cfg.ErrorOutputPaths
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return err
		}
		config.Level = level
	}

	for _, p := range append(append([]string{}, config.OutputPaths...), config.ErrorOutputPaths...) {
		if p == "stdout" || p == "stderr" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
	}

	logger, err := config.Build()
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}
