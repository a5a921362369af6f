package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/hireflow/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	candidate_id    TEXT PRIMARY KEY,
	resume_text     TEXT NOT NULL,
	structured_json JSONB NOT NULL,
	screening_json  JSONB NOT NULL,
	onboarding_json JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres is a Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the candidates table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Insert(ctx context.Context, c *domain.Candidate) error {
	enc, err := encode(c)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO candidates (candidate_id, resume_text, structured_json, screening_json, onboarding_json, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.RedactedResume, enc.profile, enc.scores, enc.onboarding, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert candidate %s: %w", c.ID, err)
	}
	return nil
}

func (p *Postgres) UpdateOnboarding(ctx context.Context, id string, plan *domain.OnboardingPlan) error {
	enc, err := encode(&domain.Candidate{Onboarding: plan})
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE candidates SET onboarding_json = $1 WHERE candidate_id = $2`,
		enc.onboarding, id,
	)
	if err != nil {
		return fmt.Errorf("update onboarding for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const postgresSelect = `SELECT candidate_id, resume_text, structured_json, screening_json, onboarding_json, created_at FROM candidates`

func (p *Postgres) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := scanPostgres(p.pool.QueryRow(ctx, postgresSelect+` WHERE candidate_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) List(ctx context.Context) ([]*domain.Candidate, error) {
	rows, err := p.pool.Query(ctx, postgresSelect+` ORDER BY created_at, candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*domain.Candidate
	for rows.Next() {
		c, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func scanPostgres(row pgx.Row) (*domain.Candidate, error) {
	var (
		c                           domain.Candidate
		profile, scores, onboarding []byte
	)
	if err := row.Scan(&c.ID, &c.RedactedResume, &profile, &scores, &onboarding, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := decode(&c, profile, scores, onboarding); err != nil {
		return nil, err
	}
	return &c, nil
}
