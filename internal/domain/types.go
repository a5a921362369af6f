// Package domain holds the request, record and error types shared by the
// screening, onboarding and policy pipelines.
package domain

import (
	"strings"
	"time"
)

// Job is the caller-supplied requirement a resume is screened against.
type Job struct {
	RequiredSkills []string `json:"required_skills"`
	RequiredYears  float64  `json:"required_years" validate:"gte=0"`
	Title          string   `json:"title,omitempty"`
}

// IsEmpty reports a job with no skills, no required years and no title.
func (j *Job) IsEmpty() bool {
	return len(j.RequiredSkills) == 0 && j.RequiredYears == 0 && strings.TrimSpace(j.Title) == ""
}

// Submission is one screening request. It lives only for the duration of the request.
type Submission struct {
	ResumeText string `json:"resume_text" validate:"required"`
	Job        *Job   `json:"job_description" validate:"required"`
}

// Profile is the deterministic feature set extracted from redacted resume text.
type Profile struct {
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"years_experience"`
}

// Confidence is the trust tier of a role-fit score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Scores is the scores block of a screening result. Every value is computed
// deterministically; model-reported scores never reach it.
type Scores struct {
	RoleFit         float64    `json:"role_fit"`
	Confidence      Confidence `json:"confidence"`
	ComputedRoleFit float64    `json:"computed_role_fit"`
}

// Screening is the schema-valid screening body returned to callers.
type Screening struct {
	Structured    Profile  `json:"structured"`
	Scores        Scores   `json:"scores"`
	Explanations  []string `json:"explanations"`
	EvidenceSpans []string `json:"evidence_spans"`
	Version       string   `json:"version"`
}

// Record is the outcome of one screening run. It is never mutated after creation.
type Record struct {
	CandidateID         string    `json:"candidate_id"`
	Screening           Screening `json:"screening"`
	HumanReviewRequired bool      `json:"human_review_required"`
}

// Candidate is the persisted view of a screened candidate. Onboarding attaches
// its plan later under the same ID.
type Candidate struct {
	ID             string          `json:"candidate_id"`
	RedactedResume string          `json:"-"`
	Profile        Profile         `json:"structured"`
	Scores         Scores          `json:"scores"`
	Onboarding     *OnboardingPlan `json:"onboarding_plan,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OnboardingPlan is a 30/60/90-day style plan attached to a candidate.
type OnboardingPlan struct {
	PlanID        string         `json:"onboarding_plan_id,omitempty"`
	CandidateID   string         `json:"candidate_id,omitempty"`
	StartDate     string         `json:"start_date,omitempty"`
	DurationDays  int            `json:"duration_days,omitempty"`
	Milestones    []Milestone    `json:"milestones"`
	LearningItems []LearningItem `json:"learning_items,omitempty"`
	Summary       string         `json:"summary,omitempty"`
}

type Milestone struct {
	Day                 int     `json:"day"`
	Task                string  `json:"task"`
	Owner               string  `json:"owner,omitempty"`
	Hours               float64 `json:"hours,omitempty"`
	RequiresHumanReview string  `json:"requires_human_review,omitempty"`
}

type LearningItem struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

// Citation points a policy answer at the document it was grounded on.
type Citation struct {
	DocID   string `json:"doc_id"`
	Version string `json:"version"`
}

// PolicyAnswer is the result of a policy question.
type PolicyAnswer struct {
	Answer   string    `json:"answer"`
	Citation *Citation `json:"citation"`
}
