package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the model provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the model identifier.
	FieldModel = "ai_model"
	// FieldCandidateID identifies the screened candidate.
	FieldCandidateID = "candidate_id"
	// FieldPromptVersion carries the prompt/pipeline version tag.
	FieldPromptVersion = "prompt_version"
	// FieldPipeline names the pipeline emitting the entry (screening, onboarding, policy).
	FieldPipeline = "pipeline"
)

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the model provider and model. Blank values are dropped.
func CommonFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if provider = strings.TrimSpace(provider); provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if model = strings.TrimSpace(model); model != "" {
		fields = append(fields, zap.String(FieldModel, model))
	}
	return fields
}

// ForPipeline returns a child logger tagged with the pipeline name and prompt version.
func ForPipeline(logger *zap.Logger, pipeline, promptVersion string) *zap.Logger {
	return WithFields(logger,
		zap.String(FieldPipeline, pipeline),
		zap.String(FieldPromptVersion, promptVersion),
	)
}
