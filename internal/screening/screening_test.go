package screening

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/redact"
	"github.com/spigell/hireflow/internal/scoring"
	"github.com/spigell/hireflow/internal/store"
)

type stubModel struct {
	out      string
	err      error
	requests []ai.Request
}

func (s *stubModel) Generate(ctx context.Context, req ai.Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.out, s.err
}

func (s *stubModel) Model() string { return "stub" }

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Insert(ctx context.Context, c *domain.Candidate) error { return f.err }

type fixture struct {
	svc   *Service
	model *stubModel
	store *store.Memory
	sink  *audit.MemorySink
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, model *stubModel) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		model: model,
		store: store.NewMemory(),
		sink:  &audit.MemorySink{},
		logs:  logs,
	}

	var gen ai.Generator
	if model != nil {
		gen = model
	}

	f.svc = NewService(Config{PromptVersion: "v1.0"}, gen, f.store, audit.NewRecorder(f.sink, nil), zap.New(core))
	ids := 0
	f.svc.newID = func() string {
		ids++
		return fmt.Sprintf("cand-%d", ids)
	}
	f.svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

const pythonResume = "Jane Doe, jane@example.com, +1 555 123 4567. 3 years in python."

func pythonJob() *domain.Job {
	return &domain.Job{RequiredSkills: []string{"python"}, RequiredYears: 2}
}

func TestScreenUsesValidModelOutput(t *testing.T) {
	model := &stubModel{out: `{
		"structured": {"skills": ["python", "kubernetes"], "years_experience": 10},
		"scores": {"role_fit": 0.1, "confidence": "Low"},
		"explanations": ["Three years of python meets the two year requirement.", "  "],
		"evidence_spans": ["3 years in python", "jane@example.com", "rust"]
	}`}
	f := newFixture(t, model)

	rec, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.NoError(t, err)

	assert.Equal(t, "cand-1", rec.CandidateID)
	assert.False(t, rec.HumanReviewRequired)

	s := rec.Screening
	assert.Equal(t, 0.9, s.Scores.RoleFit)
	assert.Equal(t, 0.9, s.Scores.ComputedRoleFit)
	assert.Equal(t, domain.ConfidenceHigh, s.Scores.Confidence)
	assert.Equal(t, "v1.0", s.Version)
	assert.Contains(t, s.Structured.Skills, "python")
	assert.NotContains(t, s.Structured.Skills, "kubernetes")
	assert.Equal(t, 3.0, s.Structured.YearsExperience)
	assert.Equal(t, []string{"Three years of python meets the two year requirement."}, s.Explanations)
	assert.Equal(t, []string{"3 years in python"}, s.EvidenceSpans)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.NotContains(t, req.User, "jane@example.com")
	assert.NotContains(t, req.User, "555 123 4567")
	assert.Contains(t, req.User, "[REDACTED_EMAIL]")
	assert.Contains(t, req.System, "TalentScout v1.0")
	assert.Equal(t, int32(DefaultMaxTokens), req.MaxTokens)
	assert.True(t, req.JSON)

	stored, err := f.store.Get(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.NotContains(t, stored.RedactedResume, "jane@example.com")
	assert.Equal(t, 0.9, stored.Scores.ComputedRoleFit)

	events := f.sink.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, audit.TypeScreen, ev.Type)
	assert.Equal(t, "cand-1", ev.CandidateID)
	require.NotNil(t, ev.RequiresReview)
	assert.False(t, *ev.RequiresReview)
	input := ev.Input.(map[string]any)
	assert.True(t, strings.HasSuffix(input["resume_redacted"].(string), "..."))
	assert.NotContains(t, input["resume_redacted"], "jane@example.com")
	assert.Nil(t, ev.Details)
}

func TestScreenNoSkillsIsLowAndNeedsReview(t *testing.T) {
	f := newFixture(t, &stubModel{out: `{"structured":{},"scores":{},"explanations":["weak match"]}`})

	rec, err := f.svc.Screen(context.Background(), domain.Submission{
		ResumeText: "Warm greetings from Bob",
		Job:        &domain.Job{RequiredSkills: []string{"python", "sql"}, RequiredYears: 5},
	})
	require.NoError(t, err)

	assert.Empty(t, rec.Screening.Structured.Skills)
	assert.Equal(t, 0.0, rec.Screening.Scores.RoleFit)
	assert.Equal(t, domain.ConfidenceLow, rec.Screening.Scores.Confidence)
	assert.True(t, rec.HumanReviewRequired)

	events := f.sink.Events()
	require.Len(t, events, 1)
	assert.True(t, *events[0].RequiresReview)
}

func TestScreenRejectsOversizedResume(t *testing.T) {
	model := &stubModel{out: "{}"}
	f := newFixture(t, model)

	_, err := f.svc.Screen(context.Background(), domain.Submission{
		ResumeText: strings.Repeat("a", 50000),
		Job:        pythonJob(),
	})

	var inputErr *domain.InputError
	require.True(t, errors.As(err, &inputErr), "got %v", err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, inputErr.Status)
	assert.Empty(t, model.requests)

	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	events := f.sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.TypeScreenRejected, events[0].Type)
	assert.Empty(t, events[0].CandidateID)
	assert.Equal(t, 50000, events[0].Details["size"])
}

func TestScreenCountsCharactersNotBytes(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.cfg.MaxResumeChars = 10

	_, err := f.svc.Screen(context.Background(), domain.Submission{
		ResumeText: strings.Repeat("ж", 10),
		Job:        pythonJob(),
	})
	require.NoError(t, err)
}

func TestScreenInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		sub   domain.Submission
		field string
	}{
		{name: "empty resume", sub: domain.Submission{ResumeText: "  ", Job: pythonJob()}, field: "resume_text"},
		{name: "missing job", sub: domain.Submission{ResumeText: pythonResume}, field: "job_description"},
		{name: "empty job", sub: domain.Submission{ResumeText: pythonResume, Job: &domain.Job{}}, field: "job_description"},
		{
			name:  "blank required skills",
			sub:   domain.Submission{ResumeText: pythonResume, Job: &domain.Job{RequiredSkills: []string{"", " "}, RequiredYears: 5}},
			field: "job_description.required_skills",
		},
		{
			name:  "negative years",
			sub:   domain.Submission{ResumeText: pythonResume, Job: &domain.Job{RequiredYears: -1}},
			field: "job_description.required_years",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &stubModel{})

			_, err := f.svc.Screen(context.Background(), tt.sub)

			var inputErr *domain.InputError
			require.True(t, errors.As(err, &inputErr), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, inputErr.Status)
			assert.Equal(t, tt.field, inputErr.Field)
			assert.Empty(t, f.model.requests)
		})
	}
}

func TestScreenFallsBackOnNonJSON(t *testing.T) {
	f := newFixture(t, &stubModel{out: "Sure! The candidate is a great fit."})
	job := &domain.Job{RequiredSkills: []string{"python", "sql"}, RequiredYears: 5}

	rec, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: "2 years python work", Job: job})
	require.NoError(t, err)

	expected := scoring.Score(job.RequiredSkills, []string{"python"}, 2, 5)
	assert.Equal(t, expected.Fit, rec.Screening.Scores.ComputedRoleFit)
	assert.Equal(t, expected.Fit, rec.Screening.Scores.RoleFit)
	assert.Equal(t, 0.42, expected.Fit)

	assert.Equal(t, []string{
		"LLM failed or schema check failed (response is not valid JSON). Computed score 0.42 (Skill Match: 1/2, Exp Score: 0.40).",
	}, rec.Screening.Explanations)
	assert.Equal(t, []string{}, rec.Screening.EvidenceSpans)
	assert.Equal(t, "v1.0", rec.Screening.Version)

	assert.Equal(t, 1, f.logs.FilterMessage("falling back to deterministic explanation").Len())

	events := f.sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "response is not valid JSON", events[0].Details["fallback_reason"])
}

func TestScreenFallsBackOnBlankExplanations(t *testing.T) {
	f := newFixture(t, &stubModel{out: `{
		"structured": {"skills": ["python"], "years_experience": 3},
		"scores": {"role_fit": 0.9, "confidence": "High"},
		"explanations": ["", "   "],
		"evidence_spans": ["3 years in python"]
	}`})

	rec, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"LLM failed or schema check failed (model returned no explanations). Computed score 0.9 (Skill Match: 1/1, Exp Score: 1.00).",
	}, rec.Screening.Explanations)
	assert.Equal(t, []string{"3 years in python"}, rec.Screening.EvidenceSpans)

	events := f.sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "model returned no explanations", events[0].Details["fallback_reason"])
}

func TestScreenFallsBackOnSchemaViolation(t *testing.T) {
	f := newFixture(t, &stubModel{out: `{"structured":{},"scores":{}}`})

	rec, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.NoError(t, err)

	require.Len(t, rec.Screening.Explanations, 1)
	assert.Contains(t, rec.Screening.Explanations[0], "schema violation")
	assert.Contains(t, rec.Screening.Explanations[0], "Computed score 0.9 (Skill Match: 1/1, Exp Score: 1.00)")
}

func TestScreenFallsBackAfterRetriesExhausted(t *testing.T) {
	model := &stubModel{err: errors.New("upstream exploded: secret-token-123")}
	f := newFixture(t, nil)

	var slept []time.Duration
	f.svc.model = ai.NewRetrying(model, ai.Policy{
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}, zap.NewNop(), 0)

	rec, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.NoError(t, err)

	assert.Len(t, model.requests, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
	require.Len(t, rec.Screening.Explanations, 1)
	assert.True(t, strings.HasPrefix(rec.Screening.Explanations[0],
		"LLM failed or schema check failed (model call failed after 3 attempt(s))."))
	assert.NotContains(t, rec.Screening.Explanations[0], "secret-token-123")
	assert.Equal(t, 0.9, rec.Screening.Scores.ComputedRoleFit)
}

func TestScreenWithoutModel(t *testing.T) {
	f := newFixture(t, nil)

	rec, err := f.svc.Screen(context.Background(), domain.Submission{
		ResumeText: "python developer",
		Job:        &domain.Job{Title: "Backend engineer"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ConfidenceHigh, rec.Screening.Scores.Confidence)
	assert.Equal(t, []string{
		"LLM failed or schema check failed (model client not configured). Computed score 0.6 (Skill Match: 1/0, Exp Score: 0.00).",
	}, rec.Screening.Explanations)
}

func TestScreenStoreFailureIsFatal(t *testing.T) {
	f := newFixture(t, &stubModel{out: "nope"})
	boom := errors.New("disk full")
	f.svc.store = failingStore{Store: f.store, err: boom}

	_, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.sink.Events())
}

func TestScreenAuditFailureIsFatal(t *testing.T) {
	f := newFixture(t, &stubModel{out: "nope"})
	f.sink.Err = errors.New("audit unavailable")

	_, err := f.svc.Screen(context.Background(), domain.Submission{ResumeText: pythonResume, Job: pythonJob()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit screening")
}

func TestEvaluateIsDeterministic(t *testing.T) {
	f := newFixture(t, nil)
	sub := domain.Submission{ResumeText: pythonResume, Job: pythonJob()}

	first, err := f.svc.Evaluate(sub)
	require.NoError(t, err)
	second, err := f.svc.Evaluate(sub)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, first.Score.SkillMatch)
	assert.Equal(t, 1.0, first.Score.Experience)
	assert.Equal(t, 0.9, first.Score.Fit)
	assert.Equal(t, domain.ConfidenceHigh, first.Confidence)
	assert.Empty(t, f.sink.Events())
}

func TestCleanExplanations(t *testing.T) {
	long := strings.Repeat("x", 400)
	in := []string{" a ", "", long}
	for i := 0; i < 20; i++ {
		in = append(in, "more")
	}

	out := cleanExplanations(in)
	require.Len(t, out, maxExplanations)
	assert.Equal(t, "a", out[0])
	assert.Len(t, out[1], maxExplanationRunes)
}

func TestVerbatimSpans(t *testing.T) {
	text := redact.Redact("python for 3 years, jane@x.io")
	got := verbatimSpans([]string{"python", "python", "jane@x.io", " ", "3 years"}, text)
	assert.Equal(t, []string{"python", "3 years"}, got)
	assert.NotNil(t, verbatimSpans(nil, text))
}
