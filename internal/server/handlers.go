package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/store"
)

type onboardingRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type onboardingResponse struct {
	Plan *domain.OnboardingPlan `json:"onboarding_plan"`
}

type policyRequest struct {
	Question string `json:"question" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req domain.Submission
	if err := s.bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.svc.Screening.Screen(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := s.bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	plan, err := s.svc.Onboarding.Generate(r.Context(), req.CandidateID, req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, onboardingResponse{Plan: plan})
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := s.bind(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := s.svc.Policy.Answer(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.svc.Candidates.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		err = domain.NotFound("candidate_id", id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// httpStatus maps pipeline errors to response codes. Anything that is not an
// input error is a server fault.
func httpStatus(err error) int {
	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		return inputErr.Status
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}
