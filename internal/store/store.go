// Package store persists screened candidates and their onboarding plans.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/hireflow/internal/domain"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when no candidate has the requested ID.
var ErrNotFound = errors.New("candidate not found")

// Store is the candidate record store. Insert never overwrites an existing ID.
type Store interface {
	Insert(ctx context.Context, c *domain.Candidate) error
	UpdateOnboarding(ctx context.Context, id string, plan *domain.OnboardingPlan) error
	Get(ctx context.Context, id string) (*domain.Candidate, error)
	List(ctx context.Context) ([]*domain.Candidate, error)
	Close() error
}

// Config selects and addresses a backend.
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Open connects to the configured backend and ensures its schema exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type encodedCandidate struct {
	profile    []byte
	scores     []byte
	onboarding []byte
}

func encode(c *domain.Candidate) (encodedCandidate, error) {
	var out encodedCandidate
	var err error
	if out.profile, err = json.Marshal(c.Profile); err != nil {
		return out, fmt.Errorf("marshal profile: %w", err)
	}
	if out.scores, err = json.Marshal(c.Scores); err != nil {
		return out, fmt.Errorf("marshal scores: %w", err)
	}
	if c.Onboarding != nil {
		if out.onboarding, err = json.Marshal(c.Onboarding); err != nil {
			return out, fmt.Errorf("marshal onboarding plan: %w", err)
		}
	}
	return out, nil
}

func decode(c *domain.Candidate, profile, scores, onboarding []byte) error {
	if err := json.Unmarshal(profile, &c.Profile); err != nil {
		return fmt.Errorf("unmarshal profile: %w", err)
	}
	if err := json.Unmarshal(scores, &c.Scores); err != nil {
		return fmt.Errorf("unmarshal scores: %w", err)
	}
	if len(onboarding) > 0 {
		c.Onboarding = &domain.OnboardingPlan{}
		if err := json.Unmarshal(onboarding, c.Onboarding); err != nil {
			return fmt.Errorf("unmarshal onboarding plan: %w", err)
		}
	}
	return nil
}
