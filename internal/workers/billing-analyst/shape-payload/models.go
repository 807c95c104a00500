// internal/workers/billing-analyst/shape-payload/models.go
package shapepayload

import "workforce-analyst/internal/models"

type Input struct {
	Records []models.Record `json:"records"`
	// Cap overrides the configured cap when positive.
	Cap int `json:"cap,omitempty"`
}

type Output struct {
	Payload  models.Payload `json:"payload"`
	Rendered string         `json:"rendered"`
}
