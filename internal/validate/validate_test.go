package validate

import (
	"strings"
	"testing"
)

func TestScreening(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		ok         bool
		reasonPart string
	}{
		{
			name: "valid object",
			raw:  `{"structured":{"skills":["python"]},"scores":{"role_fit":1},"explanations":["good"],"evidence_spans":["python"]}`,
			ok:   true,
		},
		{
			name: "evidence spans optional",
			raw:  `{"structured":{},"scores":{},"explanations":[]}`,
			ok:   true,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"structured\":{},\"scores\":{},\"explanations\":[\"a\"]}\n```",
			ok:   true,
		},
		{
			name:       "plain prose",
			raw:        "The candidate looks great!",
			reasonPart: "not valid JSON",
		},
		{
			name:       "empty",
			raw:        "   ",
			reasonPart: "empty response",
		},
		{
			name:       "array instead of object",
			raw:        `[{"structured":{}}]`,
			reasonPart: "not a JSON object",
		},
		{
			name:       "missing explanations",
			raw:        `{"structured":{},"scores":{}}`,
			reasonPart: "explanations",
		},
		{
			name:       "explanations wrong type",
			raw:        `{"structured":{},"scores":{},"explanations":"good fit"}`,
			reasonPart: "schema violation",
		},
		{
			name:       "non-string explanation",
			raw:        `{"structured":{},"scores":{},"explanations":[1]}`,
			reasonPart: "explanations.0",
		},
		{
			name:       "structured wrong type",
			raw:        `{"structured":"python","scores":{},"explanations":[]}`,
			reasonPart: "structured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Screening(tt.raw)
			if res.OK() != tt.ok {
				t.Fatalf("expected ok=%v, got %+v", tt.ok, res.Failure)
			}
			if tt.ok {
				if res.Parsed == nil || res.Failure != nil {
					t.Fatalf("expected exactly a parsed value, got %+v", res)
				}
				return
			}
			if res.Parsed != nil {
				t.Fatalf("expected no parsed value on failure")
			}
			if !strings.Contains(res.Failure.Reason, tt.reasonPart) {
				t.Fatalf("expected reason containing %q, got %q", tt.reasonPart, res.Failure.Reason)
			}
		})
	}
}

func TestScreeningDecodesFields(t *testing.T) {
	res := Screening(`{"structured":{"skills":["sql"]},"scores":{"role_fit":0.99},"explanations":["a","b"],"evidence_spans":["sql"]}`)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	out := res.Parsed
	if len(out.Explanations) != 2 || out.Explanations[1] != "b" {
		t.Fatalf("unexpected explanations: %v", out.Explanations)
	}
	if len(out.EvidenceSpans) != 1 || out.EvidenceSpans[0] != "sql" {
		t.Fatalf("unexpected evidence spans: %v", out.EvidenceSpans)
	}
	if out.Scores["role_fit"] != 0.99 {
		t.Fatalf("unexpected scores: %v", out.Scores)
	}
}

func TestOnboarding(t *testing.T) {
	res := Onboarding(`{"duration_days":90,"milestones":[{"day":1,"task":"meet team","owner":"Manager","hours":1.5}],"learning_items":[{"title":"Codebase tour"}],"summary":"ramp up"}`)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	plan := res.Parsed
	if plan.DurationDays != 90 || len(plan.Milestones) != 1 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if m := plan.Milestones[0]; m.Day != 1 || m.Task != "meet team" || m.Hours != 1.5 {
		t.Fatalf("unexpected milestone: %+v", m)
	}
	if plan.Summary != "ramp up" {
		t.Fatalf("unexpected summary %q", plan.Summary)
	}

	for _, raw := range []string{
		"not json",
		`{"summary":"no milestones"}`,
		`{"milestones":[]}`,
		`{"milestones":[{"task":"missing day"}]}`,
	} {
		if res := Onboarding(raw); res.OK() {
			t.Fatalf("expected failure for %s", raw)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"`{\"a\":1}`":             `{"a":1}`,
	}
	for in, want := range tests {
		if got := extractJSON(in); got != want {
			t.Fatalf("extractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
