// Package server exposes the screening, onboarding and policy pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/domain"
)

const (
	DefaultListen       = ":5050"
	DefaultMaxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Listen       string   `mapstructure:"listen"`
	MaxBodyBytes int64    `mapstructure:"max-body-bytes"`
	CORSOrigins  []string `mapstructure:"cors-origins"`
}

type Screener interface {
	Screen(ctx context.Context, sub domain.Submission) (*domain.Record, error)
}

type Onboarder interface {
	Generate(ctx context.Context, candidateID, startDate string) (*domain.OnboardingPlan, error)
}

type PolicyAnswerer interface {
	Answer(ctx context.Context, question string) (*domain.PolicyAnswer, error)
}

type CandidateReader interface {
	Get(ctx context.Context, id string) (*domain.Candidate, error)
}

// Services are the pipelines behind the routes.
type Services struct {
	Screening  Screener
	Onboarding Onboarder
	Policy     PolicyAnswerer
	Candidates CandidateReader
}

type Server struct {
	cfg    Config
	svc    Services
	logger *zap.Logger
	router chi.Router
}

func New(cfg Config, svc Services, logger *zap.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{cfg: cfg, svc: svc, logger: logger.Named("http")}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(chimw.Recoverer)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/screen_resume", s.handleScreen)
	r.Post("/generate_onboarding", s.handleOnboarding)
	r.Post("/policy_qa", s.handlePolicy)
	r.Get("/candidates/{id}", s.handleCandidate)
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http shutting down")
	return srv.Shutdown(shutdownCtx)
}

type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	if n > 0 {
		cw.bytes += n
	}
	return n, err
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			logger.Info("request done",
				zap.Int("status", cw.status),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("bytes", cw.bytes),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
