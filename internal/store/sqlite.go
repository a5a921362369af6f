package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/hireflow/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	candidate_id    TEXT PRIMARY KEY,
	resume_text     TEXT NOT NULL,
	structured_json TEXT NOT NULL,
	screening_json  TEXT NOT NULL,
	onboarding_json TEXT,
	created_at      TEXT NOT NULL
)`

// SQLite is a Store over a single sqlite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, c *domain.Candidate) error {
	enc, err := encode(c)
	if err != nil {
		return err
	}
	var onboarding any
	if enc.onboarding != nil {
		onboarding = string(enc.onboarding)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (candidate_id, resume_text, structured_json, screening_json, onboarding_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.RedactedResume, string(enc.profile), string(enc.scores), onboarding, c.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert candidate %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLite) UpdateOnboarding(ctx context.Context, id string, plan *domain.OnboardingPlan) error {
	enc, err := encode(&domain.Candidate{Onboarding: plan})
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET onboarding_json = ? WHERE candidate_id = ?`,
		string(enc.onboarding), id,
	)
	if err != nil {
		return fmt.Errorf("update onboarding for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update onboarding for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const sqliteSelect = `SELECT candidate_id, resume_text, structured_json, screening_json, onboarding_json, created_at FROM candidates`

func (s *SQLite) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE candidate_id = ?`, id)
	c, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLite) List(ctx context.Context) ([]*domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect+` ORDER BY created_at, candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*domain.Candidate
	for rows.Next() {
		c, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (*domain.Candidate, error) {
	var (
		c               domain.Candidate
		profile, scores string
		onboarding      sql.NullString
		createdAt       string
	)
	if err := row.Scan(&c.ID, &c.RedactedResume, &profile, &scores, &onboarding, &createdAt); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	c.CreatedAt = ts
	if err := decode(&c, []byte(profile), []byte(scores), []byte(onboarding.String)); err != nil {
		return nil, err
	}
	return &c, nil
}
