package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/ai/claude"
	"github.com/spigell/devils-advocate/internal/ai/gemini"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/secrets"
)

const (
	providerGemini    = "gemini"
	providerAnthropic = "anthropic"
)

// newGenerator builds the configured provider wrapped in the timeout-aware caller.
// The rate limiter wait happens before each attempt deadline starts.
func newGenerator(ctx context.Context, config *Config, log *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider == "" {
		provider = providerGemini
	}

	var (
		base      ai.Generator
		maxLogLen int
	)

	switch provider {
	case providerGemini:
		cfg := config.Gemini
		if cfg == nil {
			cfg = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		genLogger := logger.WithCommonFields(log, provider, cfg.Model).With(zap.Int("ai_retry_attempts", cfg.MaxRetries))
		base, err = gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}
		maxLogLen = cfg.MaxLogLength
	case providerAnthropic, "claude":
		cfg := config.Anthropic
		if cfg == nil {
			cfg = &AnthropicConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "ANTHROPIC_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set anthropic.api-key-file or ANTHROPIC_API_KEY)", err)
		}

		base, err = claude.NewGenerator(apiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}

	gen := config.Generation
	if gen == nil {
		gen = &GenerationConfig{}
	}

	caller := ai.NewCaller(base, gen.Timeout, gen.RetryBackoff, logger.WithCommonFields(log, provider, base.Model()))
	caller.Limiter = ai.NewLimiter(gen.RequestsPerMinute)
	if maxLogLen > 0 {
		caller.MaxLogLen = maxLogLen
	}

	return caller, nil
}
