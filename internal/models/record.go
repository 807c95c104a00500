package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record is one employee engagement document as stored in the collection.
// Field names are the workbook headers ("Team Name", "SOW Level", ...).
type Record map[string]interface{}

// IDField is the document key every stored record carries.
const IDField = "id"

// ID returns the record id, or "" when absent.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// String returns a field as a string and whether it held one.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field].(string)
	return v, ok
}

// Number returns a numeric field as float64. Integer types are widened.
func (r Record) Number(field string) (float64, bool) {
	return ToFloat(r[field])
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat widens the numeric kinds JSON decoders and drivers produce.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

var pathHostile = regexp.MustCompile(`[\s/\\:*?"<>|]`)

// NewRecordID builds the store id used by the workbook loader:
// "<name>_<sow>" lowercased with path-hostile characters replaced by "_".
// A missing name becomes "Employee_<index>", a missing SOW the row index.
func NewRecordID(name, sow string, index int) string {
	name = strings.TrimSpace(name)
	sow = strings.TrimSpace(sow)
	if name == "" {
		name = "Employee_" + strconv.Itoa(index)
	}
	if sow == "" {
		sow = strconv.Itoa(index)
	}
	return strings.ToLower(pathHostile.ReplaceAllString(name+"_"+sow, "_"))
}

// GenerateID returns a random id for records created without one.
func GenerateID() string {
	return uuid.NewString()
}
