// internal/workers/billing-analyst/retrieve-records/config.go
package retrieverecords

import (
	"time"

	"workforce-analyst/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
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
	return c
}
