package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/spigell/devils-advocate/internal/ai"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024

	jsonInstruction = "Respond with a single valid JSON object only, no markdown fencing or explanation."
)

type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
	NewStreaming(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// Generator wraps the Anthropic Messages API.
type Generator struct {
	messages messageCreator
	model    anthropic.Model
}

// NewGenerator creates an Anthropic-backed generator with the given API key and model.
func NewGenerator(apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Generator{
		messages: &client.Messages,
		model:    anthropic.Model(model),
	}, nil
}

func (g *Generator) Generate(ctx context.Context, system, message string, opts ai.Options) (string, error) {
	if g == nil || g.messages == nil {
		return "", errors.New("anthropic generator is not initialized")
	}

	params := buildParams(g.model, system, message, opts)
	if len(params.Messages) == 0 {
		return "", errors.New("prompt must not be empty")
	}

	if opts.Stream != nil {
		return g.stream(ctx, params, opts.Stream)
	}

	msg, err := g.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	if builder.Len() == 0 {
		return "", errors.New("no text content in API response")
	}

	return builder.String(), nil
}

func (g *Generator) stream(ctx context.Context, params anthropic.MessageNewParams, onChunk func(string)) (string, error) {
	stream := g.messages.NewStreaming(ctx, params)
	defer stream.Close()

	var builder strings.Builder
	for stream.Next() {
		event := stream.Current()
		if event.Type != "content_block_delta" || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
			continue
		}
		onChunk(event.Delta.Text)
		builder.WriteString(event.Delta.Text)
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("anthropic API stream: %w", err)
	}

	out := strings.TrimSpace(builder.String())
	if out == "" {
		return "", errors.New("no text content in API response")
	}
	return out, nil
}

func buildParams(model anthropic.Model, system, message string, opts ai.Options) anthropic.MessageNewParams {
	system = strings.TrimSpace(system)
	message = strings.TrimSpace(message)
	if message == "" {
		message, system = system, ""
	}

	if opts.ResponseFormat == ai.FormatJSON {
		if system == "" {
			system = jsonInstruction
		} else {
			system = system + "\n\n" + jsonInstruction
		}
	}

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.ModelOr(string(model))),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if message != "" {
		params.Messages = []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		}
	}
	return params
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return string(g.model)
}
