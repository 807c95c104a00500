// internal/workers/billing-analyst/synthesize-query/config.go
package synthesizequery

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
		Timeout:     30 * time.Second,
		MaxTokens:   200,
		Temperature: 0.1,
		TopP:        0.9,
	}
}

// ConfigFrom overlays the query-synthesis settings of the application config
// on the defaults. Unset sampling fields keep the default; an explicit
// temperature of 0 is honored.
func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg == nil {
		return c
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = time.Duration(w.Timeout) * time.Millisecond
	}
	gen := cfg.Pipeline.QuerySynthesis
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
