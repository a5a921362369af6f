// Package scoring computes the explainable role-fit score and its confidence tier.
package scoring

import (
	"math"

	"github.com/spigell/hireflow/internal/domain"
)

// Component weights. The optional-skill bonus is fixed at zero in this version.
const (
	skillMatchWeight    = 0.6
	experienceWeight    = 0.3
	optionalBonusWeight = 0.1
	optionalBonus       = 0.0
)

const (
	highThreshold   = 0.8
	mediumThreshold = 0.5
)

// Result is a role-fit score with the sub-components it was built from.
type Result struct {
	Fit        float64
	SkillMatch float64
	Experience float64
	// Matched is the number of required skills found in the resume. With no
	// required skills it is reported as 1 against a Total of 0.
	Matched int
	Total   int
}

// Score combines skill overlap and experience sufficiency into a fit in [0, 1],
// rounded to three decimals. Skills are compared as exact tokens; repeated
// required skills count once. Blank tokens are kept and never match.
func Score(requiredSkills, resumeSkills []string, years, requiredYears float64) Result {
	required := distinct(requiredSkills)

	r := Result{Total: len(required)}
	if len(required) == 0 {
		r.SkillMatch = 1.0
		r.Matched = 1
	} else {
		have := make(map[string]struct{}, len(resumeSkills))
		for _, s := range resumeSkills {
			have[s] = struct{}{}
		}
		for _, s := range required {
			if _, ok := have[s]; ok && s != "" {
				r.Matched++
			}
		}
		r.SkillMatch = float64(r.Matched) / float64(len(required))
	}

	r.Experience = ExperienceRatio(years, requiredYears)
	r.Fit = round3(skillMatchWeight*r.SkillMatch + experienceWeight*r.Experience + optionalBonusWeight*optionalBonus)
	return r
}

// ExperienceRatio is years over required years, capped at 1. The divisor is at
// least 1, and any experience at all saturates a zero requirement.
func ExperienceRatio(years, requiredYears float64) float64 {
	if years <= 0 {
		return 0
	}
	if requiredYears <= 0 {
		return 1
	}
	return math.Min(1.0, years/math.Max(1, requiredYears))
}

// Classify maps a fit and match counts to a confidence tier.
func Classify(fit float64, matched, total int) domain.Confidence {
	if total == 0 || (fit >= highThreshold && matched >= total) {
		return domain.ConfidenceHigh
	}
	if fit >= mediumThreshold {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}

// Confidence classifies the result.
func (r Result) Confidence() domain.Confidence {
	return Classify(r.Fit, r.Matched, r.Total)
}

// RequiresReview reports whether a tier must be escalated to a human reviewer.
func RequiresReview(c domain.Confidence) bool {
	return c == domain.ConfidenceLow
}

func distinct(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
