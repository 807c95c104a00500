// internal/workers/billing-analyst/shape-payload/shape.go
package shapepayload

import (
	"strings"

	"workforce-analyst/internal/models"
)

// internalPrefix marks store metadata (_rid, _etag, _ts, ...).
const internalPrefix = "_"

// Clean returns a copy of rec without nil values, empty strings and
// internal metadata fields.
func Clean(rec models.Record) models.Record {
	out := make(models.Record, len(rec))
	for k, v := range rec {
		if strings.HasPrefix(k, internalPrefix) || isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}

// Shape cleans records and bounds them by limit. Up to limit records are
// kept whole; beyond it the first limit records are projected onto
// models.CriticalFields. A non-positive limit means DefaultPayloadCap.
func Shape(records []models.Record, limit int) models.Payload {
	if limit <= 0 {
		limit = models.DefaultPayloadCap
	}

	p := models.Payload{Total: len(records), Cap: limit}
	if len(records) <= limit {
		p.Records = make([]models.Record, len(records))
		for i, rec := range records {
			p.Records[i] = Clean(rec)
		}
		return p
	}

	p.Truncated = true
	p.Records = make([]models.Record, limit)
	for i, rec := range records[:limit] {
		p.Records[i] = project(Clean(rec), models.CriticalFields)
	}
	return p
}

func project(rec models.Record, fields []string) models.Record {
	out := make(models.Record, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
