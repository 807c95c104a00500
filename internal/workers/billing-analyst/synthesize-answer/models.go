// internal/workers/billing-analyst/synthesize-answer/models.go
package synthesizeanswer

import (
	"time"

	"workforce-analyst/internal/models"
)

type Input struct {
	Question string         `json:"question"`
	Payload  models.Payload `json:"payload"`
	Now      time.Time      `json:"now"`
}

type Output struct {
	Answer string `json:"answer"`
}
