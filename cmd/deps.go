package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/ai/gemini"
	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/config"
	"github.com/spigell/hireflow/internal/logger"
	"github.com/spigell/hireflow/internal/onboarding"
	"github.com/spigell/hireflow/internal/policy"
	"github.com/spigell/hireflow/internal/screening"
	"github.com/spigell/hireflow/internal/secrets"
	"github.com/spigell/hireflow/internal/store"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// runtime holds everything a command needs. It is built once per invocation.
type runtime struct {
	config   *config.Config
	logger   *zap.Logger
	store    store.Store
	sink     *audit.FileSink
	recorder *audit.Recorder
	model    ai.Generator
}

// bootstrap builds the logger and config and opens the store and audit log.
// It exits the process on unrecoverable errors, like the rest of the CLI.
func bootstrap(ctx context.Context) *runtime {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hireflow", zap.String("version", version))

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	sink, err := audit.OpenFile(cfg.Audit.Path)
	if err != nil {
		logger.Fatal("opening the audit log", zap.String("path", cfg.Audit.Path), zap.Error(err))
	}

	rt := &runtime{
		config:   cfg,
		logger:   logger,
		store:    st,
		sink:     sink,
		recorder: audit.NewRecorder(sink, nil),
	}

	model, err := newModel(ctx, cfg, logger)
	if err != nil {
		logger.Warn("model is unavailable, deterministic fallbacks will be used", zap.Error(err))
	} else if model != nil {
		rt.model = model
	}

	return rt
}

func newModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ai.Retrying, error) {
	if !cfg.ModelEnabled() {
		logger.Info("model provider disabled")
		return nil, nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.AI.APIKeyFile,
		Value: cfg.AI.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	gen, err := gemini.NewGenerator(ctx, apiKey, cfg.AI.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	policy := ai.DefaultPolicy()
	if cfg.AI.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.AI.MaxAttempts
	}

	return ai.NewRetrying(gen, policy, logger, cfg.AI.MaxLogLength), nil
}

func (rt *runtime) screening() *screening.Service {
	return screening.NewService(screening.Config{
		PromptVersion:     rt.config.PromptVersion,
		MaxResumeChars:    rt.config.Screening.MaxResumeChars,
		AuditPreviewChars: rt.config.Screening.AuditPreviewChars,
		MaxTokens:         rt.config.Screening.MaxTokens,
	}, rt.model, rt.store, rt.recorder, rt.logger)
}

func (rt *runtime) onboarding() *onboarding.Service {
	return onboarding.NewService(onboarding.Config{
		PromptVersion:    rt.config.PromptVersion,
		MaxTokens:        rt.config.Onboarding.MaxTokens,
		DefaultStartDate: rt.config.Onboarding.DefaultStartDate,
	}, rt.model, rt.store, rt.recorder, rt.logger)
}

func (rt *runtime) policy() *policy.Service {
	docs, err := policy.LoadDocuments(rt.config.Policy.File)
	if err != nil {
		rt.logger.Warn("using default policy documents", zap.Error(err))
	}
	return policy.NewService(policy.Config{
		PromptVersion: rt.config.PromptVersion,
		MaxTokens:     rt.config.Policy.MaxTokens,
	}, docs, rt.model, rt.recorder, rt.logger)
}

func (rt *runtime) close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing the store", zap.Error(err))
	}
	if err := rt.sink.Close(); err != nil {
		rt.logger.Warn("closing the audit log", zap.Error(err))
	}
	_ = rt.logger.Sync()
}
