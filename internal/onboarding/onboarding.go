// Package onboarding drafts a first-weeks plan for a screened candidate.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/logger"
	"github.com/spigell/hireflow/internal/prompt"
	"github.com/spigell/hireflow/internal/store"
	"github.com/spigell/hireflow/internal/validate"
)

const (
	DefaultStartDate = "2024-01-01"
	DefaultMaxTokens = 500

	templateDurationDays = 60
	dateLayout           = "2006-01-02"
)

type Config struct {
	PromptVersion    string
	MaxTokens        int32
	DefaultStartDate string
}

type Service struct {
	cfg    Config
	model  ai.Generator
	store  store.Store
	audit  *audit.Recorder
	logger *zap.Logger

	newID func() string
}

func NewService(cfg Config, model ai.Generator, st store.Store, rec *audit.Recorder, log *zap.Logger) *Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if strings.TrimSpace(cfg.DefaultStartDate) == "" {
		cfg.DefaultStartDate = DefaultStartDate
	}
	return &Service{
		cfg:    cfg,
		model:  model,
		store:  st,
		audit:  rec,
		logger: logger.ForPipeline(log, "onboarding", cfg.PromptVersion),
		newID:  uuid.NewString,
	}
}

// Generate builds, stores and audits an onboarding plan for candidateID. An
// empty startDate uses the configured default. When the model is unavailable or
// returns an unusable plan, a fixed template plan is stored instead.
func (s *Service) Generate(ctx context.Context, candidateID, startDate string) (*domain.OnboardingPlan, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return nil, domain.Missing("candidate_id")
	}
	startDate = strings.TrimSpace(startDate)
	if startDate == "" {
		startDate = s.cfg.DefaultStartDate
	}
	if _, err := time.Parse(dateLayout, startDate); err != nil {
		return nil, domain.Invalid("start_date", "must be a YYYY-MM-DD date")
	}

	candidate, err := s.store.Get(ctx, candidateID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("candidate_id", candidateID)
	}
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}

	log := s.logger.With(zap.String(logger.FieldCandidateID, candidateID))

	plan, reason, err := s.draft(ctx, candidate, startDate)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		log.Warn("using template onboarding plan", zap.String("reason", reason))
		plan = s.template(candidateID, startDate)
	} else {
		if plan.PlanID == "" {
			plan.PlanID = s.newID()
		}
		plan.CandidateID = candidateID
		plan.StartDate = startDate
	}

	if err := s.store.UpdateOnboarding(ctx, candidateID, plan); err != nil {
		log.Error("store onboarding plan", zap.Error(err))
		return nil, fmt.Errorf("store onboarding plan: %w", err)
	}

	details := map[string]any{"plan_summary": plan.Milestones[0].Task}
	if reason != "" {
		details["fallback_reason"] = reason
	}
	if err := s.audit.Record(ctx, audit.Event{
		Type:          audit.TypeOnboard,
		CandidateID:   candidateID,
		PromptVersion: s.cfg.PromptVersion,
		Details:       details,
	}); err != nil {
		log.Error("audit onboarding", zap.Error(err))
		return nil, fmt.Errorf("audit onboarding: %w", err)
	}

	log.Info("generated onboarding plan", zap.String("plan_id", plan.PlanID), zap.Bool("template", reason != ""))
	return plan, nil
}

func (s *Service) draft(ctx context.Context, c *domain.Candidate, startDate string) (*domain.OnboardingPlan, string, error) {
	if s.model == nil {
		return nil, "model client not configured", nil
	}

	msgs, err := prompt.Onboarding(s.cfg.PromptVersion, c.Profile, startDate, c.Scores.ComputedRoleFit)
	if err != nil {
		return nil, "", fmt.Errorf("build onboarding prompt: %w", err)
	}

	raw, err := s.model.Generate(ctx, ai.Request{
		System:    msgs.System,
		User:      msgs.User,
		MaxTokens: s.cfg.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		s.logger.Debug("onboarding model call failed", zap.Error(err))
		return nil, "model call failed", nil
	}

	res := validate.Onboarding(raw)
	if !res.OK() {
		return nil, res.Failure.Reason, nil
	}
	return res.Parsed, "", nil
}

func (s *Service) template(candidateID, startDate string) *domain.OnboardingPlan {
	return &domain.OnboardingPlan{
		PlanID:       s.newID(),
		CandidateID:  candidateID,
		StartDate:    startDate,
		DurationDays: templateDurationDays,
		Milestones: []domain.Milestone{{
			Day:                 1,
			Task:                "setup laptop",
			Owner:               "IT",
			Hours:               2,
			RequiresHumanReview: "Plan template used",
		}},
		LearningItems: []domain.LearningItem{{
			Title: "Basic HR Docs",
			Link:  "knowledge://hr_policy_v2.1",
		}},
	}
}
