// internal/workers/billing-analyst/shape-payload/config.go
package shapepayload

import (
	"time"

	"workforce-analyst/internal/common/config"
	"workforce-analyst/internal/models"
)

type Config struct {
	Timeout time.Duration
	Cap     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Cap:     models.DefaultPayloadCap,
	}
}

func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg == nil {
		return c
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = time.Duration(w.Timeout) * time.Millisecond
	}
	if cfg.Pipeline.PayloadCap > 0 {
		c.Cap = cfg.Pipeline.PayloadCap
	}
	return c
}
