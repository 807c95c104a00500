package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"workforce-analyst/internal/common/metrics"
)

// Instrumented records call metrics around another Client.
type Instrumented struct {
	next Client
}

func Instrument(next Client) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Provider() string { return i.next.Provider() }

func (i *Instrumented) Complete(ctx context.Context, req Request) (*Response, error) {
	provider := i.next.Provider()

	var prompt strings.Builder
	for _, m := range req.Messages {
		prompt.WriteString(m.Content)
		prompt.WriteByte('\n')
	}
	metrics.LLMPromptTokens.WithLabelValues(provider).Observe(float64(EstimateTokens(prompt.String())))

	start := time.Now()
	resp, err := i.next.Complete(ctx, req)
	metrics.LLMCallDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case strings.TrimSpace(resp.Text()) == "":
		outcome = "empty"
	}
	metrics.LLMCalls.WithLabelValues(provider, outcome).Inc()
	return resp, err
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// EstimateTokens counts cl100k_base tokens, falling back to one token per
// four characters when the encoding cannot be loaded.
func EstimateTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
