// internal/workers/billing-analyst/handle-user-message/config.go
package handleusermessage

import (
	"time"

	"workforce-analyst/internal/common/config"
	"workforce-analyst/internal/models"
)

type Config struct {
	Timeout    time.Duration
	PayloadCap int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    90 * time.Second,
		PayloadCap: models.DefaultPayloadCap,
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
		c.PayloadCap = cfg.Pipeline.PayloadCap
	}
	return c
}
