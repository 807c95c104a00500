package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultPayloadCap bounds the records handed to the answer model.
const DefaultPayloadCap = 25

// Payload is the bounded record set embedded in the answer prompt. Total is
// the record count before truncation.
type Payload struct {
	Records   []Record `json:"records"`
	Total     int      `json:"total"`
	Cap       int      `json:"cap"`
	Truncated bool     `json:"truncated"`
}

// Render formats the payload as the "Employee Data" block of the answer prompt.
func (p Payload) Render() string {
	data := renderJSON(p.Records)
	if p.Truncated {
		return fmt.Sprintf("NOTE: Data truncated to first %d records (out of %d) to prevent timeout.\n\n"+
			"Simplified Data (Critical Fields Only):\n%s", p.Cap, p.Total, data)
	}
	return fmt.Sprintf("Total Employees: %d\n\nFull Data:\n%s", p.Total, data)
}

func renderJSON(records []Record) string {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "[]"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
