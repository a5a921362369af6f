package screening

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/hireflow/internal/redact"
	"github.com/spigell/hireflow/internal/scoring"
)

func composeFallback(reason string, score scoring.Result) string {
	return fmt.Sprintf(
		"LLM failed or schema check failed (%s). Computed score %s (Skill Match: %d/%d, Exp Score: %.2f).",
		reason,
		strconv.FormatFloat(score.Fit, 'f', -1, 64),
		score.Matched,
		score.Total,
		score.Experience,
	)
}

func cleanExplanations(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if r := []rune(e); len(r) > maxExplanationRunes {
			e = string(r[:maxExplanationRunes])
		}
		out = append(out, e)
		if len(out) == maxExplanations {
			break
		}
	}
	return out
}

// verbatimSpans keeps only spans that occur in the redacted text, so evidence
// can never reintroduce content the redactor removed.
func verbatimSpans(spans []string, text redact.Text) []string {
	out := make([]string, 0, len(spans))
	seen := make(map[string]struct{}, len(spans))
	for _, span := range spans {
		if strings.TrimSpace(span) == "" {
			continue
		}
		if _, dup := seen[span]; dup {
			continue
		}
		if !strings.Contains(string(text), span) {
			continue
		}
		seen[span] = struct{}{}
		out = append(out, span)
	}
	return out
}
