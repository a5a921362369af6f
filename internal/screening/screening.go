// Package screening runs the resume screening pipeline: redaction, feature
// extraction, scoring, the model call and its validation, the deterministic
// fallback, persistence and audit.
package screening

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/features"
	"github.com/spigell/hireflow/internal/logger"
	"github.com/spigell/hireflow/internal/prompt"
	"github.com/spigell/hireflow/internal/redact"
	"github.com/spigell/hireflow/internal/scoring"
	"github.com/spigell/hireflow/internal/store"
	"github.com/spigell/hireflow/internal/validate"
)

const (
	DefaultMaxResumeChars    = 30000
	DefaultAuditPreviewChars = 500
	DefaultMaxTokens         = 400

	maxExplanations     = 10
	maxExplanationRunes = 300
	noExplanations      = "model returned no explanations"
)

// Config holds the screening limits. Zero values fall back to the defaults.
type Config struct {
	PromptVersion     string
	MaxResumeChars    int
	AuditPreviewChars int
	MaxTokens         int32
}

func (c Config) withDefaults() Config {
	if c.MaxResumeChars <= 0 {
		c.MaxResumeChars = DefaultMaxResumeChars
	}
	if c.AuditPreviewChars <= 0 {
		c.AuditPreviewChars = DefaultAuditPreviewChars
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Service screens submissions. It is safe for concurrent use as long as its
// collaborators are.
type Service struct {
	cfg    Config
	model  ai.Generator
	store  store.Store
	audit  *audit.Recorder
	logger *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewService wires a screening Service. model may be nil, in which case every
// screening uses the deterministic fallback.
func NewService(cfg Config, model ai.Generator, st store.Store, rec *audit.Recorder, log *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		cfg:    cfg,
		model:  model,
		store:  st,
		audit:  rec,
		logger: logger.ForPipeline(log, "screening", cfg.PromptVersion),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Assessment is the deterministic part of a screening.
type Assessment struct {
	Redacted   redact.Text
	Profile    domain.Profile
	Score      scoring.Result
	Confidence domain.Confidence
}

// Evaluate validates the submission and computes its deterministic assessment.
// It has no side effects.
func (s *Service) Evaluate(sub domain.Submission) (*Assessment, error) {
	if err := s.checkInput(sub); err != nil {
		return nil, err
	}
	return assess(sub), nil
}

func assess(sub domain.Submission) *Assessment {
	redacted := redact.Redact(sub.ResumeText)
	profile := features.Extract(redacted)
	score := scoring.Score(sub.Job.RequiredSkills, profile.Skills, profile.YearsExperience, sub.Job.RequiredYears)
	return &Assessment{
		Redacted:   redacted,
		Profile:    profile,
		Score:      score,
		Confidence: score.Confidence(),
	}
}

func (s *Service) checkInput(sub domain.Submission) *domain.InputError {
	if sub.Job == nil || sub.Job.IsEmpty() {
		return domain.Missing("job_description")
	}
	for _, skill := range sub.Job.RequiredSkills {
		if strings.TrimSpace(skill) == "" {
			return domain.Invalid("job_description.required_skills", "must not contain blank skills")
		}
	}
	if math.IsNaN(sub.Job.RequiredYears) || math.IsInf(sub.Job.RequiredYears, 0) || sub.Job.RequiredYears < 0 {
		return domain.Invalid("job_description.required_years", "must be a non-negative number")
	}
	if strings.TrimSpace(sub.ResumeText) == "" {
		return domain.Missing("resume_text")
	}
	if utf8.RuneCountInString(sub.ResumeText) > s.cfg.MaxResumeChars {
		return domain.TooLarge("resume_text", s.cfg.MaxResumeChars)
	}
	return nil
}

// Screen runs the full pipeline. Model and validation failures are absorbed by
// the fallback; only input, store and audit errors are returned.
func (s *Service) Screen(ctx context.Context, sub domain.Submission) (*domain.Record, error) {
	if inputErr := s.checkInput(sub); inputErr != nil {
		s.reject(ctx, sub, inputErr)
		return nil, inputErr
	}

	a := assess(sub)

	screening, fallbackReason, err := s.explain(ctx, a, sub.Job)
	if err != nil {
		return nil, err
	}

	record := &domain.Record{
		CandidateID:         s.newID(),
		Screening:           screening,
		HumanReviewRequired: scoring.RequiresReview(a.Confidence),
	}
	log := s.logger.With(zap.String(logger.FieldCandidateID, record.CandidateID))

	if err := s.store.Insert(ctx, &domain.Candidate{
		ID:             record.CandidateID,
		RedactedResume: a.Redacted.String(),
		Profile:        a.Profile,
		Scores:         screening.Scores,
		CreatedAt:      s.now().UTC(),
	}); err != nil {
		log.Error("store screening record", zap.Error(err))
		return nil, fmt.Errorf("store screening record: %w", err)
	}

	ev := audit.Event{
		Type:          audit.TypeScreen,
		CandidateID:   record.CandidateID,
		PromptVersion: s.cfg.PromptVersion,
		Input: map[string]any{
			"resume_redacted": preview(a.Redacted.String(), s.cfg.AuditPreviewChars),
			"job_description": sub.Job,
			"prompt_version":  s.cfg.PromptVersion,
		},
		Output:         screening,
		RequiresReview: audit.Bool(record.HumanReviewRequired),
	}
	if fallbackReason != "" {
		ev.Details = map[string]any{"fallback_reason": fallbackReason}
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		log.Error("audit screening", zap.Error(err))
		return nil, fmt.Errorf("audit screening: %w", err)
	}

	log.Info("screened resume",
		zap.Float64("role_fit", a.Score.Fit),
		zap.String("confidence", string(a.Confidence)),
		zap.Bool("human_review_required", record.HumanReviewRequired),
		zap.Bool("fallback", fallbackReason != ""),
	)

	return record, nil
}

// explain asks the model for explanations and falls back to the deterministic
// text when the call or its validation fails. The returned reason is empty when
// the model output was used.
func (s *Service) explain(ctx context.Context, a *Assessment, job *domain.Job) (domain.Screening, string, error) {
	out := domain.Screening{
		Structured: a.Profile,
		Scores: domain.Scores{
			RoleFit:         a.Score.Fit,
			Confidence:      a.Confidence,
			ComputedRoleFit: a.Score.Fit,
		},
		Version: s.cfg.PromptVersion,
	}

	parsed, reason, err := s.callModel(ctx, a, job)
	if err != nil {
		return out, "", err
	}

	if parsed == nil {
		out.Explanations = []string{composeFallback(reason, a.Score)}
		out.EvidenceSpans = []string{}
		return out, reason, nil
	}

	out.Explanations = cleanExplanations(parsed.Explanations)
	out.EvidenceSpans = verbatimSpans(parsed.EvidenceSpans, a.Redacted)
	if len(out.Explanations) == 0 {
		reason = noExplanations
		s.logger.Warn("falling back to deterministic explanation", zap.String("reason", reason))
		out.Explanations = []string{composeFallback(reason, a.Score)}
		return out, reason, nil
	}
	return out, "", nil
}

func (s *Service) callModel(ctx context.Context, a *Assessment, job *domain.Job) (*validate.ScreeningOutput, string, error) {
	if s.model == nil {
		return nil, "model client not configured", nil
	}

	msgs, err := prompt.Screening(s.cfg.PromptVersion, a.Redacted, job)
	if err != nil {
		return nil, "", fmt.Errorf("build screening prompt: %w", err)
	}

	raw, err := s.model.Generate(ctx, ai.Request{
		System:    msgs.System,
		User:      msgs.User,
		MaxTokens: s.cfg.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		var callErr *ai.CallError
		reason := "model call failed"
		if errors.As(err, &callErr) {
			reason = fmt.Sprintf("model call failed after %d attempt(s)", callErr.Attempts)
		}
		s.logger.Warn("falling back to deterministic explanation", zap.String("reason", reason), zap.Error(err))
		return nil, reason, nil
	}

	res := validate.Screening(raw)
	if !res.OK() {
		s.logger.Warn("falling back to deterministic explanation",
			zap.String("reason", res.Failure.Reason),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
		)
		return nil, res.Failure.Reason, nil
	}
	return res.Parsed, "", nil
}

func (s *Service) reject(ctx context.Context, sub domain.Submission, inputErr *domain.InputError) {
	details := map[string]any{
		"field":  inputErr.Field,
		"status": inputErr.Status,
		"size":   utf8.RuneCountInString(sub.ResumeText),
	}
	if err := s.audit.Record(ctx, audit.Event{
		Type:          audit.TypeScreenRejected,
		PromptVersion: s.cfg.PromptVersion,
		Reason:        inputErr.Error(),
		Details:       details,
	}); err != nil {
		s.logger.Error("audit rejected submission", zap.Error(err))
	}
	s.logger.Info("rejected submission", zap.String("reason", inputErr.Error()))
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
