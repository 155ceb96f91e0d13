package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/devils-advocate/internal/ai"
	"github.com/spigell/devils-advocate/internal/bias"
	"github.com/spigell/devils-advocate/internal/improvement"
	"github.com/spigell/devils-advocate/internal/logger"
	"github.com/spigell/devils-advocate/internal/output"
	"github.com/spigell/devils-advocate/internal/reviewers"
	"github.com/spigell/devils-advocate/internal/session"
)

// runtime holds what every command that talks to a text-generation service needs.
type runtime struct {
	config    *Config
	logger    *zap.Logger
	ui        *output.UI
	generator ai.Generator
}

func newRuntime(ctx context.Context) (*runtime, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, err
	}

	log.Info("starting the devils-advocate", zap.String("version", resolveVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	generator, err := newGenerator(ctx, config, log)
	if err != nil {
		return nil, err
	}

	ui := output.New()
	ui.Verbose = viper.GetBool("debug")

	return &runtime{config: config, logger: log, ui: ui, generator: generator}, nil
}

func redacted(config *Config) Config {
	c := *config
	if c.Gemini != nil && c.Gemini.APIKey != "" {
		g := *c.Gemini
		g.APIKey = "***"
		c.Gemini = &g
	}
	if c.Anthropic != nil && c.Anthropic.APIKey != "" {
		a := *c.Anthropic
		a.APIKey = "***"
		c.Anthropic = &a
	}
	return c
}

func (r *runtime) generation() GenerationConfig {
	if r.config.Generation == nil {
		return GenerationConfig{}
	}
	return *r.config.Generation
}

func (r *runtime) improvementsConfig() ImprovementsConfig {
	if r.config.Improvements == nil {
		return ImprovementsConfig{Enabled: true}
	}
	return *r.config.Improvements
}

func (r *runtime) sessionConfig() SessionConfig {
	if r.config.Session == nil {
		return SessionConfig{Driver: session.DriverMemory}
	}
	return *r.config.Session
}

func (r *runtime) exportConfig() ExportConfig {
	if r.config.Export == nil {
		return ExportConfig{}
	}
	return *r.config.Export
}

func (r *runtime) registry() (*reviewers.Registry, error) {
	return reviewers.New(r.config.Reviewers)
}

func (r *runtime) analyzer() *bias.Analyzer {
	gen := r.generation()
	return &bias.Analyzer{
		Generator:   r.generator,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		Logger:      r.logger,
	}
}

func (r *runtime) aggregator(mode, source string) *improvement.Aggregator {
	gen := r.generation()
	return &improvement.Aggregator{
		Generator:   r.generator,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		Mode:        mode,
		Context:     source,
		Concurrency: r.concurrency(),
		Logger:      r.logger,
	}
}

func (r *runtime) concurrency() int {
	if r.config.Evaluation == nil {
		return 0
	}
	return r.config.Evaluation.Concurrency
}

func (r *runtime) openStore(ctx context.Context) (session.Store, error) {
	cfg := r.sessionConfig()
	store, err := session.Open(ctx, cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, nil
}

// readText returns the contents of a plain text file.
func readText(path, what string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%s file is required", what)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", what, err)
	}
	return string(data), nil
}

func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
