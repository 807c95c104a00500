package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "workforce-analyst/internal/common/errors"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"Timeout waiting for response", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.err)), tt.err)
	}
}

func TestExecuteWithRetry_RecoversFromTransientFailure(t *testing.T) {
	c := testClient(3)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "complete-job", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_ExhaustsTransient(t *testing.T) {
	c := testClient(2)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "topology", func(context.Context) error {
		calls++
		return fmt.Errorf("gateway unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEngineUnavailable, stdErr.Code)
	assert.Contains(t, stdErr.Details, "zeebe operation 'topology' failed after 3 attempts")
}

func TestExecuteWithRetry_PermanentFailure(t *testing.T) {
	c := testClient(3)
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), "fail-job", func(context.Context) error {
		calls++
		return fmt.Errorf("job not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	_, ok := apperrors.AsStandard(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "job not found")
}
