// internal/workers/billing-analyst/synthesize-query/models.go
package synthesizequery

import "time"

type Input struct {
	Question string    `json:"question"`
	Now      time.Time `json:"now"`
}

type Output struct {
	RawQuery    string `json:"rawQuery"`
	Query       string `json:"query"`
	PassThrough bool   `json:"passThrough"`
	Rejected    bool   `json:"rejected"`
	Reason      string `json:"reason,omitempty"`
}
