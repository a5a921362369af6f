// Package policy answers HR policy questions from a small document set. Answers
// are grounded on a single retrieved snippet and always carry a citation.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/logger"
	"github.com/spigell/hireflow/internal/prompt"
)

const (
	NoAnswer         = "NO_ANSWER_FOUND"
	DefaultMaxTokens = 300

	answererName = "PolicyAnswerer"
)

// Document is one policy text.
type Document struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// DefaultDocuments is used when no policy file can be read.
var DefaultDocuments = []Document{{
	DocID: "policy1",
	Text:  "Default policy: We allow 10 sick days per year.",
}}

// LoadDocuments reads a JSON array of documents from path. A missing or
// malformed file yields DefaultDocuments together with the error for logging.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultDocuments, fmt.Errorf("read policies %s: %w", path, err)
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return DefaultDocuments, fmt.Errorf("parse policies %s: %w", path, err)
	}
	return docs, nil
}

// Retrieve returns the first document whose text contains any word of the
// question, compared case-insensitively.
func Retrieve(docs []Document, question string) (Document, bool) {
	words := strings.Fields(strings.ToLower(question))
	for _, doc := range docs {
		text := strings.ToLower(doc.Text)
		for _, w := range words {
			if strings.Contains(text, w) {
				return doc, true
			}
		}
	}
	return Document{}, false
}

type Config struct {
	PromptVersion string
	MaxTokens     int32
}

type Service struct {
	cfg    Config
	docs   []Document
	model  ai.Generator
	audit  *audit.Recorder
	logger *zap.Logger
}

func NewService(cfg Config, docs []Document, model ai.Generator, rec *audit.Recorder, log *zap.Logger) *Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if len(docs) == 0 {
		docs = DefaultDocuments
	}
	return &Service{
		cfg:    cfg,
		docs:   docs,
		model:  model,
		audit:  rec,
		logger: logger.ForPipeline(log, "policy", cfg.PromptVersion),
	}
}

// Answer retrieves a snippet for question and asks the model to answer from it.
// Without a matching snippet, or when the model call fails, the answer is
// NoAnswer.
func (s *Service) Answer(ctx context.Context, question string) (*domain.PolicyAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.Missing("question")
	}

	out := &domain.PolicyAnswer{Answer: NoAnswer}

	doc, ok := Retrieve(s.docs, question)
	if ok {
		out.Citation = &domain.Citation{
			DocID:   doc.DocID,
			Version: prompt.System(answererName, s.cfg.PromptVersion),
		}
		if answer := s.ask(ctx, doc, question); answer != "" {
			out.Answer = answer
		}
	}

	if err := s.audit.Record(ctx, audit.Event{
		Type:          audit.TypePolicyQA,
		PromptVersion: s.cfg.PromptVersion,
		Input:         map[string]any{"question": question},
		Output:        out,
	}); err != nil {
		s.logger.Error("audit policy answer", zap.Error(err))
		return nil, fmt.Errorf("audit policy answer: %w", err)
	}

	return out, nil
}

func (s *Service) ask(ctx context.Context, doc Document, question string) string {
	if s.model == nil {
		s.logger.Warn("policy model not configured")
		return ""
	}

	msgs, err := prompt.Policy(s.cfg.PromptVersion, doc.Text, question)
	if err != nil {
		s.logger.Warn("build policy prompt", zap.Error(err))
		return ""
	}

	raw, err := s.model.Generate(ctx, ai.Request{
		System:    msgs.System,
		User:      msgs.User,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		var callErr *ai.CallError
		if errors.As(err, &callErr) {
			s.logger.Warn("policy model call failed", zap.Int("attempts", callErr.Attempts), zap.Error(callErr.Err))
		} else {
			s.logger.Warn("policy model call failed", zap.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(raw)
}
