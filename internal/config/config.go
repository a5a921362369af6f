// Package config loads the hireflow configuration from file, environment and
// flags into a single value that is built once and injected.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spigell/hireflow/internal/ai"
	"github.com/spigell/hireflow/internal/onboarding"
	"github.com/spigell/hireflow/internal/policy"
	"github.com/spigell/hireflow/internal/screening"
	"github.com/spigell/hireflow/internal/server"
	"github.com/spigell/hireflow/internal/store"
)

const (
	EnvPrefix            = "HIREFLOW"
	DefaultPromptVersion = "v1.0"
	ProviderGemini       = "gemini"
	ProviderNone         = "none"
)

type Config struct {
	Server        server.Config    `mapstructure:"server"`
	Store         store.Config     `mapstructure:"store"`
	Audit         AuditConfig      `mapstructure:"audit"`
	AI            AIConfig         `mapstructure:"ai"`
	PromptVersion string           `mapstructure:"prompt-version"`
	Screening     ScreeningConfig  `mapstructure:"screening"`
	Onboarding    OnboardingConfig `mapstructure:"onboarding"`
	Policy        PolicyConfig     `mapstructure:"policy"`
}

type AuditConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxAttempts  int    `mapstructure:"max-attempts"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ScreeningConfig struct {
	MaxResumeChars    int   `mapstructure:"max-resume-chars"`
	AuditPreviewChars int   `mapstructure:"audit-preview-chars"`
	MaxTokens         int32 `mapstructure:"max-tokens"`
}

type OnboardingConfig struct {
	MaxTokens        int32  `mapstructure:"max-tokens"`
	DefaultStartDate string `mapstructure:"default-start-date"`
}

type PolicyConfig struct {
	File      string `mapstructure:"file"`
	MaxTokens int32  `mapstructure:"max-tokens"`
}

var defaults = map[string]any{
	"server.listen":         server.DefaultListen,
	"server.max-body-bytes": server.DefaultMaxBodyBytes,
	"server.cors-origins":   []string{"*"},

	"store.driver": store.DriverSQLite,
	"store.dsn":    "hireflow.db",

	"audit.path": "audit.log",

	"ai.provider":       ProviderGemini,
	"ai.api-key":        "",
	"ai.api-key-file":   "",
	"ai.model":          "",
	"ai.max-attempts":   ai.DefaultMaxAttempts,
	"ai.max-log-length": 200,

	"prompt-version": DefaultPromptVersion,

	"screening.max-resume-chars":    screening.DefaultMaxResumeChars,
	"screening.audit-preview-chars": screening.DefaultAuditPreviewChars,
	"screening.max-tokens":          screening.DefaultMaxTokens,

	"onboarding.max-tokens":         onboarding.DefaultMaxTokens,
	"onboarding.default-start-date": onboarding.DefaultStartDate,

	"policy.file":       "policies.json",
	"policy.max-tokens": policy.DefaultMaxTokens,
}

// Setup registers defaults and environment overrides on v. Every key can be
// overridden as HIREFLOW_<SECTION>_<KEY>, e.g. HIREFLOW_STORE_DSN. The Gemini
// key is also read from GEMINI_API_KEY.
func Setup(v *viper.Viper) error {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("ai.api-key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return fmt.Errorf("binding api key environment: %w", err)
	}
	return nil
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Store.Driver) {
	case store.DriverMemory, store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if strings.ToLower(c.Store.Driver) != store.DriverMemory && strings.TrimSpace(c.Store.DSN) == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}

	switch strings.ToLower(c.AI.Provider) {
	case ProviderGemini, ProviderNone, "":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider))
	}

	if strings.TrimSpace(c.Audit.Path) == "" {
		errs = append(errs, errors.New("audit.path is required"))
	}
	if strings.TrimSpace(c.PromptVersion) == "" {
		errs = append(errs, errors.New("prompt-version is required"))
	}

	for key, value := range map[string]int64{
		"server.max-body-bytes":         c.Server.MaxBodyBytes,
		"ai.max-attempts":               int64(c.AI.MaxAttempts),
		"ai.max-log-length":             int64(c.AI.MaxLogLength),
		"screening.max-resume-chars":    int64(c.Screening.MaxResumeChars),
		"screening.audit-preview-chars": int64(c.Screening.AuditPreviewChars),
		"screening.max-tokens":          int64(c.Screening.MaxTokens),
		"onboarding.max-tokens":         int64(c.Onboarding.MaxTokens),
		"policy.max-tokens":             int64(c.Policy.MaxTokens),
	} {
		if value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
	}

	return errors.Join(errs...)
}

// ModelEnabled reports whether a model provider is configured.
func (c *Config) ModelEnabled() bool {
	p := strings.ToLower(strings.TrimSpace(c.AI.Provider))
	return p != "" && p != ProviderNone
}
