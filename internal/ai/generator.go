// Package ai defines the model-call contract shared by every pipeline and the
// retry policy wrapped around it.
package ai

import "context"

// Request is a single model call: a system instruction, one user message and an
// output budget.
type Request struct {
	System    string
	User      string
	MaxTokens int32
	// JSON asks the backend for a JSON response body when it supports one.
	JSON bool
}

// Generator produces a completion for a request. Implementations run with
// temperature 0.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}
