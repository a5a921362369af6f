// Package prompt builds the hardened system and user messages sent to the model.
// User content is always serialized as a single JSON object so it reaches the
// model as data, never as instructions.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/redact"
)

const versionPlaceholder = "{{VERSION}}"

var (
	//go:embed talentscout.md
	talentScoutTemplate string
	//go:embed onboarder.md
	onboarderTemplate string
	//go:embed policyanswerer.md
	policyAnswererTemplate string
)

// Messages is a system instruction and the user payload for one model call.
type Messages struct {
	System string
	User   string
}

type screeningPayload struct {
	ResumeText string      `json:"resume_text"`
	Job        *domain.Job `json:"job_description"`
}

// Screening builds the TalentScout prompt. Only redacted text is accepted.
func Screening(version string, resume redact.Text, job *domain.Job) (Messages, error) {
	return build(talentScoutTemplate, version, screeningPayload{
		ResumeText: resume.String(),
		Job:        job,
	})
}

type onboardingPayload struct {
	Profile      domain.Profile `json:"structured_profile"`
	StartDate    string         `json:"start_date"`
	RoleFitScore float64        `json:"role_fit_score"`
}

// Onboarding builds the Onboarder prompt for a screened candidate.
func Onboarding(version string, profile domain.Profile, startDate string, roleFit float64) (Messages, error) {
	return build(onboarderTemplate, version, onboardingPayload{
		Profile:      profile,
		StartDate:    startDate,
		RoleFitScore: roleFit,
	})
}

type policyPayload struct {
	Snippet  string `json:"snippet"`
	Question string `json:"question"`
}

// Policy builds the PolicyAnswerer prompt for a retrieved snippet.
func Policy(version, snippet, question string) (Messages, error) {
	return build(policyAnswererTemplate, version, policyPayload{
		Snippet:  snippet,
		Question: question,
	})
}

// System returns the named agent header, e.g. "PolicyAnswerer v1.0".
func System(agent, version string) string {
	return strings.TrimSpace(agent + " " + version)
}

func build(template, version string, payload any) (Messages, error) {
	user, err := json.Marshal(payload)
	if err != nil {
		return Messages{}, fmt.Errorf("marshal prompt payload: %w", err)
	}

	return Messages{
		System: strings.TrimSpace(strings.ReplaceAll(template, versionPlaceholder, version)),
		User:   string(user),
	}, nil
}
