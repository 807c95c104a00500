// internal/workers/billing-analyst/shape-payload/handler_test.go
package shapepayload

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-analyst/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, Cap: models.DefaultPayloadCap}
}

func employees(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{
			"id":                 fmt.Sprintf("employee_%d", i+1),
			"Name":               fmt.Sprintf("Employee %d", i+1),
			"Team Name":          "Beta",
			"Job Level":          "3P",
			"SOW Level":          "2P",
			"Billed Level":       "2P",
			"ARR Value":          float64(100000 + i),
			"Resource End Date":  46100.0,
			"Email":              fmt.Sprintf("employee%d@example.com", i+1),
			"Functional Manager": "",
			"_rid":               "internal",
			"_ts":                1700000000,
		}
	}
	return out
}

// ==========================
// Clean Tests
// ==========================

func TestClean(t *testing.T) {
	rec := models.Record{"Name": "A", "Empty": "", "Null": nil, "_rid": "x"}
	assert.Equal(t, models.Record{"Name": "A"}, Clean(rec))
	assert.Len(t, rec, 4, "input must not be modified")
}

func TestCleanKeepsFalsyValues(t *testing.T) {
	rec := models.Record{"ARR Value": 0.0, "Transfer": false, "Status": " "}
	assert.Equal(t, rec, Clean(rec))
}

// ==========================
// Shape Tests
// ==========================

func TestShapeWithinCap(t *testing.T) {
	for _, n := range []int{0, 1, 24, 25} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			p := Shape(employees(n), models.DefaultPayloadCap)

			assert.Len(t, p.Records, n)
			assert.Equal(t, n, p.Total)
			assert.Equal(t, models.DefaultPayloadCap, p.Cap)
			assert.False(t, p.Truncated)
			for _, rec := range p.Records {
				assert.Contains(t, rec, "Email")
				assert.NotContains(t, rec, "_rid")
				assert.NotContains(t, rec, "Functional Manager")
			}
		})
	}
}

func TestShapeOverCap(t *testing.T) {
	records := employees(30)
	p := Shape(records, models.DefaultPayloadCap)

	require.Len(t, p.Records, 25)
	assert.Equal(t, 30, p.Total)
	assert.True(t, p.Truncated)

	critical := make(map[string]bool)
	for _, f := range models.CriticalFields {
		critical[f] = true
	}
	for i, rec := range p.Records {
		for field := range rec {
			assert.True(t, critical[field], "record %d has non-critical field %q", i, field)
		}
		assert.Equal(t, records[i]["Name"], rec["Name"], "order must be preserved")
	}
	assert.NotContains(t, p.Records[0], "Billing Rate", "absent critical fields stay absent")
}

func TestShapeDefaultCap(t *testing.T) {
	p := Shape(employees(26), 0)
	assert.Equal(t, models.DefaultPayloadCap, p.Cap)
	assert.True(t, p.Truncated)
}

// ==========================
// Render Tests
// ==========================

func TestRenderFull(t *testing.T) {
	p := Shape([]models.Record{{"Name": "A & B", "SOW Level": "3P"}}, models.DefaultPayloadCap)

	want := "Total Employees: 1\n\nFull Data:\n[\n  {\n    \"Name\": \"A & B\",\n    \"SOW Level\": \"3P\"\n  }\n]"
	assert.Equal(t, want, p.Render())
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "Total Employees: 0\n\nFull Data:\n[]", Shape(nil, 25).Render())
}

func TestRenderTruncated(t *testing.T) {
	text := Shape(employees(30), models.DefaultPayloadCap).Render()

	assert.True(t, strings.HasPrefix(text,
		"NOTE: Data truncated to first 25 records (out of 30) to prevent timeout.\n\nSimplified Data (Critical Fields Only):\n["))
	assert.NotContains(t, text, "Email")
	assert.Equal(t, 25, strings.Count(text, `"Name"`))
}

// ==========================
// Handler Tests
// ==========================

func TestExecute(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, NewTestLogger(t))

	out := h.Execute(&Input{Records: employees(30)})
	assert.Len(t, out.Payload.Records, 25)
	assert.Equal(t, out.Payload.Render(), out.Rendered)

	out = h.Execute(&Input{Records: employees(30), Cap: 40})
	assert.Len(t, out.Payload.Records, 30)
	assert.False(t, out.Payload.Truncated)
	assert.Equal(t, 40, out.Payload.Cap)
}
