// Package validate turns raw model output into typed values. A response that is
// not JSON, breaks the schema contract or cannot be decoded yields a Failure
// value; nothing here panics on model input.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/hireflow/internal/domain"
)

var (
	//go:embed screening.schema.json
	screeningSchemaJSON string
	//go:embed onboarding.schema.json
	onboardingSchemaJSON string

	screeningSchema  = mustSchema("screening", screeningSchemaJSON)
	onboardingSchema = mustSchema("onboarding", onboardingSchemaJSON)
)

func mustSchema(name, content string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}

// ScreeningOutput is the model's screening answer after the schema check.
// Scores are kept only for the audit trail; they never reach callers.
type ScreeningOutput struct {
	Structured    map[string]any `json:"structured"`
	Scores        map[string]any `json:"scores"`
	Explanations  []string       `json:"explanations"`
	EvidenceSpans []string       `json:"evidence_spans"`
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// Failure explains why a response was rejected.
type Failure struct {
	Reason string
	Fields []FieldError
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Reason
}

// Result holds exactly one of Parsed or Failure.
type Result[T any] struct {
	Parsed  *T
	Failure *Failure
}

// OK reports whether the response was accepted.
func (r Result[T]) OK() bool {
	return r.Failure == nil && r.Parsed != nil
}

func fail[T any](reason string, fields ...FieldError) Result[T] {
	return Result[T]{Failure: &Failure{Reason: reason, Fields: fields}}
}

// Screening validates a TalentScout response.
func Screening(raw string) Result[ScreeningOutput] {
	return parse[ScreeningOutput](raw, screeningSchema)
}

// Onboarding validates an Onboarder response.
func Onboarding(raw string) Result[domain.OnboardingPlan] {
	return parse[domain.OnboardingPlan](raw, onboardingSchema)
}

func parse[T any](raw string, schema *gojsonschema.Schema) Result[T] {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return fail[T]("empty response")
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return fail[T]("response is not valid JSON")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return fail[T]("response is not a JSON object")
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return fail[T](fmt.Sprintf("schema check: %v", err))
	}
	if !result.Valid() {
		fields := make([]FieldError, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fields = append(fields, FieldError{Field: field, Message: desc.Description()})
		}
		return fail[T](schemaReason(fields), fields...)
	}

	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fail[T](fmt.Sprintf("decoder: %v", err))
	}
	if err := decoder.Decode(obj); err != nil {
		return fail[T](fmt.Sprintf("decode response: %v", err))
	}

	return Result[T]{Parsed: &out}
}

func schemaReason(fields []FieldError) string {
	if len(fields) == 0 {
		return "schema violation"
	}
	first := fields[0]
	if len(fields) == 1 {
		return fmt.Sprintf("schema violation: %s: %s", first.Field, first.Message)
	}
	return fmt.Sprintf("schema violation: %s: %s (and %d more)", first.Field, first.Message, len(fields)-1)
}

// extractJSON strips a surrounding markdown code fence.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
