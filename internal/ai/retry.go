package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/logger"
)

const (
	DefaultMaxAttempts  = 3
	defaultMaxLogLength = 200
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// ExponentialBackoff waits 2^attempt seconds after the zero-based failed attempt.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// Policy controls how many times a call is attempted and how long to wait
// between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy is three attempts with 1s and 2s pauses in between.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     ExponentialBackoff,
		Sleep:       WaitFor,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = ExponentialBackoff
	}
	if p.Sleep == nil {
		p.Sleep = WaitFor
	}
	return p
}

// CallError is returned once every attempt has failed. Err is the last
// underlying failure.
type CallError struct {
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Retrying wraps a Generator with a retry Policy.
type Retrying struct {
	next      Generator
	policy    Policy
	logger    *zap.Logger
	maxLogLen int
}

// NewRetrying wraps next. maxLogLength bounds request and response previews in
// debug logs.
func NewRetrying(next Generator, policy Policy, log *zap.Logger, maxLogLength int) *Retrying {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	var model string
	if next != nil {
		model = next.Model()
	}
	return &Retrying{
		next:      next,
		policy:    policy.withDefaults(),
		logger:    logger.WithFields(log, logger.CommonFields("", model)...),
		maxLogLen: maxLogLength,
	}
}

func (r *Retrying) Model() string {
	if r == nil || r.next == nil {
		return ""
	}
	return r.next.Model()
}

// Generate calls the wrapped generator until it succeeds, attempts run out or
// ctx is done. Every failure is reported as *CallError.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	if r == nil || r.next == nil {
		return "", &CallError{Err: errors.New("model client not configured")}
	}

	r.logger.Debug("model request",
		zap.Int("prompt_length", utf8.RuneCountInString(req.User)),
		zap.String("prompt_preview", logger.TruncateForLog(req.User, r.maxLogLen)),
	)

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		attempts++
		raw, err := r.next.Generate(ctx, req)
		if err == nil {
			r.logger.Debug("model response",
				zap.Int("attempt", attempts),
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
			)
			return raw, nil
		}
		lastErr = err

		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := r.policy.Backoff(attempt)
		r.logger.Warn("model call failed, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := r.policy.Sleep(ctx, delay); err != nil {
			break
		}
	}

	return "", &CallError{Attempts: attempts, Err: lastErr}
}
