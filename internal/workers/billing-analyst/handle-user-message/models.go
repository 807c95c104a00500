// internal/workers/billing-analyst/handle-user-message/models.go
package handleusermessage

import "time"

// State is a step of a conversation turn.
type State string

const (
	StateIdle              State = "Idle"
	StateSynthesizing      State = "Synthesizing"
	StateValidating        State = "Validating"
	StateRetrieving        State = "Retrieving"
	StateRetryingRetrieval State = "RetryingRetrieval"
	StateShaping           State = "Shaping"
	StateAnswering         State = "Answering"
	StateResponded         State = "Responded"
	StateNoData            State = "NoData"
	StateFailed            State = "Failed"
)

// Terminal reports whether a turn ends in s.
func (s State) Terminal() bool {
	return s == StateResponded || s == StateNoData || s == StateFailed
}

type Input struct {
	Message string    `json:"message"`
	Now     time.Time `json:"now"`
}

// Output describes one finished turn. Response is the single message shown
// to the user.
type Output struct {
	TurnID      string  `json:"turnId"`
	State       State   `json:"state"`
	Response    string  `json:"response"`
	Trace       []State `json:"trace"`
	Query       string  `json:"query,omitempty"`
	PassThrough bool    `json:"passThrough"`
	Rejected    bool    `json:"rejected"`
	Reason      string  `json:"reason,omitempty"`
	Attempts    int     `json:"attempts,omitempty"`
	Retrieved   int     `json:"retrieved"`
	Shaped      int     `json:"shaped"`
	Truncated   bool    `json:"truncated"`
	ErrorCode   string  `json:"errorCode,omitempty"`
}
