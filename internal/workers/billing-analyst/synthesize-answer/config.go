// internal/workers/billing-analyst/synthesize-answer/config.go
package synthesizeanswer

import (
	"time"

	"workforce-analyst/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		MaxTokens:   1000,
		Temperature: 0.3,
		TopP:        0.9,
	}
}

// ConfigFrom overlays the answer settings of the application config on the
// defaults. Unset sampling fields keep the default; an explicit temperature
// of 0 is honored.
func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg == nil {
		return c
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = time.Duration(w.Timeout) * time.Millisecond
	}
	gen := cfg.Pipeline.Answer
	if gen.MaxTokens > 0 {
		c.MaxTokens = gen.MaxTokens
	}
	if gen.Temperature != nil {
		c.Temperature = *gen.Temperature
	}
	if gen.TopP != nil {
		c.TopP = *gen.TopP
	}
	return c
}
