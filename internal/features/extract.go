// Package features extracts a deterministic skill and experience profile from
// redacted resume text.
//
// Skills are matched by case-insensitive substring search against a fixed
// vocabulary. Short tokens such as "c" therefore match inside unrelated words;
// this keeps extraction explainable and reproducible and is accepted as a known
// limitation.
package features

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/redact"
)

// Vocabulary is the controlled skill vocabulary, in reporting order.
var Vocabulary = []string{
	"python",
	"java",
	"sql",
	"javascript",
	"react",
	"node",
	"c++",
	"c",
	"pytorch",
	"tensorflow",
	"nlp",
}

var yearsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+years`)

// Extract returns the skills found in text, in vocabulary order, and the first
// "<number> years" figure. Years defaults to 0 when absent.
func Extract(text redact.Text) domain.Profile {
	lower := strings.ToLower(string(text))

	skills := make([]string, 0, len(Vocabulary))
	for _, token := range Vocabulary {
		if strings.Contains(lower, token) {
			skills = append(skills, token)
		}
	}

	return domain.Profile{
		Skills:          skills,
		YearsExperience: years(lower),
	}
}

func years(lower string) float64 {
	m := yearsPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
