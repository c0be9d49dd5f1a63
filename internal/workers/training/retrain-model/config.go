// internal/workers/training/retrain-model/config.go
package retrainmodel

import (
	"time"

	"scholarship-engine/internal/common/config"
)

type Config struct {
	// Timeout bounds one training run started from a process.
	Timeout time.Duration
}

func LoadConfig(cfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Config{Timeout: timeout}
}
