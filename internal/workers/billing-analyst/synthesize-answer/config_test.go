// internal/workers/billing-analyst/synthesize-answer/config_test.go
package synthesizeanswer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"workforce-analyst/internal/common/config"
)

func f64(v float64) *float64 { return &v }

func TestConfigFrom(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want Config
	}{
		{
			name: "nil config keeps defaults",
			cfg:  nil,
			want: *LoadConfig(),
		},
		{
			name: "unset sampling fields keep defaults",
			cfg:  &config.Config{},
			want: *LoadConfig(),
		},
		{
			name: "explicit zero temperature is honored",
			cfg: func() *config.Config {
				c := &config.Config{}
				c.Pipeline.Answer = config.GenerationConfig{Temperature: f64(0)}
				return c
			}(),
			want: Config{Timeout: LoadConfig().Timeout, MaxTokens: 1000, Temperature: 0, TopP: 0.9},
		},
		{
			name: "all fields overlaid",
			cfg: func() *config.Config {
				c := &config.Config{Workers: map[string]config.WorkerConfig{TaskType: {Timeout: 5000}}}
				c.Pipeline.Answer = config.GenerationConfig{MaxTokens: 64, Temperature: f64(0.7), TopP: f64(0.5)}
				return c
			}(),
			want: Config{Timeout: 5 * time.Second, MaxTokens: 64, Temperature: 0.7, TopP: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *ConfigFrom(tt.cfg))
		})
	}

	assert.InDelta(t, 0.3, LoadConfig().Temperature, 1e-9)
}
