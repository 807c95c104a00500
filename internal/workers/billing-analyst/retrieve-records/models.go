// internal/workers/billing-analyst/retrieve-records/models.go
package retrieverecords

import "workforce-analyst/internal/models"

type Input struct {
	Query string `json:"query"`
}

// Output is also the result of Retrieve. Attempts is 1 or 2.
type Output struct {
	Records  []models.Record `json:"records"`
	Attempts int             `json:"attempts"`
	FellBack bool            `json:"fellBack"`
	NoData   bool            `json:"noData"`
}
