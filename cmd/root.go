package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/devils-advocate/internal/reviewers"
)

const (
	app       = "devils-advocate"
	envPrefix = "DEVILS_ADVOCATE"
)

type Config struct {
	Provider     string                 `mapstructure:"provider"`
	Gemini       *GeminiConfig          `mapstructure:"gemini"`
	Anthropic    *AnthropicConfig       `mapstructure:"anthropic"`
	Generation   *GenerationConfig      `mapstructure:"generation"`
	Reviewers    []reviewers.Definition `mapstructure:"reviewers"`
	Evaluation   *EvaluationConfig      `mapstructure:"evaluation"`
	Improvements *ImprovementsConfig    `mapstructure:"improvements"`
	Session      *SessionConfig         `mapstructure:"session"`
	Export       *ExportConfig          `mapstructure:"export"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type AnthropicConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type GenerationConfig struct {
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max-tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryBackoff      time.Duration `mapstructure:"retry-backoff"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	FormatModel       string        `mapstructure:"format-model"`
}

type EvaluationConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type ImprovementsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode"`
	Context string `mapstructure:"context"`
}

type SessionConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "devils-advocate evaluates a job application with a panel of biased and unbiased reviewers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is devils-advocate.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.api-key-file", "")
	v.SetDefault("gemini.model", "gemini-2.5-pro")
	v.SetDefault("gemini.max-retries", 3)
	v.SetDefault("gemini.max-log-length", 200)
	v.SetDefault("anthropic.api-key", "")
	v.SetDefault("anthropic.api-key-file", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max-tokens", 2048)
	v.SetDefault("generation.timeout", 90*time.Second)
	v.SetDefault("generation.retry-backoff", 2*time.Second)
	v.SetDefault("generation.requests-per-minute", 0)
	v.SetDefault("generation.format-model", "")
	v.SetDefault("evaluation.concurrency", 0)
	v.SetDefault("improvements.enabled", true)
	v.SetDefault("improvements.mode", "batched")
	v.SetDefault("improvements.context", "reviews")
	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.path", "")
	v.SetDefault("export.format", "json")
	v.SetDefault("export.path", "")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}
}

// readConfig loads the config file. A missing default file is fine: defaults and
// environment variables still apply.
func readConfig() error {
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !(cfgFile == "" && errors.As(err, &notFound)) {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func getConfig() (*Config, error) {
	if err := readConfig(); err != nil {
		return nil, err
	}

	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is required")
	}

	return config, nil
}
