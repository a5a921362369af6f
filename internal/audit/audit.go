// Package audit appends one structured event per pipeline decision to an
// append-only sink.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	TypeScreen         = "screen_resume"
	TypeScreenRejected = "screen_resume_rejected"
	TypeOnboard        = "onboard"
	TypePolicyQA       = "policy_qa"
	TypeHumanReview    = "human_review"
)

// Event is one audit line. Input and Output hold redacted content only.
type Event struct {
	Type           string         `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	CandidateID    string         `json:"candidate_id,omitempty"`
	PromptVersion  string         `json:"prompt_version,omitempty"`
	Input          any            `json:"input,omitempty"`
	Output         any            `json:"output,omitempty"`
	RequiresReview *bool          `json:"requires_review,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// Sink persists events. Appends from concurrent requests must not interleave.
type Sink interface {
	Append(ctx context.Context, ev Event) error
}

// Recorder stamps events and hands them to a Sink.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder returns a Recorder over sink. A nil clock means time.Now.
func NewRecorder(sink Sink, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{sink: sink, now: now}
}

// Record sets the timestamp in UTC and appends the event.
func (r *Recorder) Record(ctx context.Context, ev Event) error {
	if r == nil || r.sink == nil {
		return errors.New("audit sink is not configured")
	}
	if ev.Type == "" {
		return errors.New("audit event type is required")
	}
	ev.Timestamp = r.now().UTC()
	return r.sink.Append(ctx, ev)
}

// Bool is a helper for Event.RequiresReview.
func Bool(v bool) *bool { return &v }

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	// Err, when set, is returned from every Append.
	Err error
}

func (m *MemorySink) Append(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of everything appended so far.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
