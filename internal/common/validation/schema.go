package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"workforce-analyst/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins the individual failures into one message.
func (r *ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// ValidateInput validates job variables against a JSON schema document.
// An empty schema accepts everything.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// Validator checks job variables against the activity registry.
type Validator struct {
	reg *registry.ActivityRegistry
}

func NewValidator(reg *registry.ActivityRegistry) *Validator {
	return &Validator{reg: reg}
}

// ValidateTask validates input for a task type. Unknown task types pass.
func (v *Validator) ValidateTask(taskType string, input map[string]interface{}) (*ValidationResult, error) {
	if v == nil || v.reg == nil {
		return &ValidationResult{Valid: true}, nil
	}
	activity, ok := v.reg.Find(taskType)
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}
	return ValidateInput(input, activity.InputSchema)
}
