package claude

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/devils-advocate/internal/ai"
)

type fakeMessages struct {
	params []anthropic.MessageNewParams
	reply  *anthropic.Message
	err    error
	events []ssestream.Event
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, body)
	return f.reply, f.err
}

func (f *fakeMessages) NewStreaming(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	f.params = append(f.params, body)
	return ssestream.NewStream[anthropic.MessageStreamEventUnion](&fakeDecoder{events: f.events}, f.err)
}

type fakeDecoder struct {
	events []ssestream.Event
	pos    int
}

func (d *fakeDecoder) Next() bool {
	if d.pos >= len(d.events) {
		return false
	}
	d.pos++
	return true
}

func (d *fakeDecoder) Event() ssestream.Event { return d.events[d.pos-1] }
func (d *fakeDecoder) Close() error           { return nil }
func (d *fakeDecoder) Err() error             { return nil }

func textDelta(text string) ssestream.Event {
	return ssestream.Event{
		Type: "content_block_delta",
		Data: []byte(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":` + strconv.Quote(text) + `}}`),
	}
}

func TestGenerate(t *testing.T) {
	fake := &fakeMessages{reply: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: " first "},
		{Type: "thinking"},
		{Type: "text", Text: "second"},
	}}}
	g := &Generator{messages: fake, model: "claude-test"}

	out, err := g.Generate(context.Background(), "be fair", "review this", ai.Options{Temperature: 0.1, MaxTokens: 512})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", out)

	require.Len(t, fake.params, 1)
	params := fake.params[0]
	assert.Equal(t, anthropic.Model("claude-test"), params.Model)
	assert.Equal(t, int64(512), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be fair", params.System[0].Text)
	assert.Len(t, params.Messages, 1)
}

func TestGenerateJSONAddsInstruction(t *testing.T) {
	params := buildParams("m", "sys", "msg", ai.Options{ResponseFormat: ai.FormatJSON})
	require.Len(t, params.System, 1)
	assert.Contains(t, params.System[0].Text, "sys")
	assert.Contains(t, params.System[0].Text, "JSON object")
	assert.Equal(t, int64(defaultMaxTokens), params.MaxTokens)
}

func TestGenerateSystemOnly(t *testing.T) {
	params := buildParams("m", "only system", "", ai.Options{})
	assert.Empty(t, params.System)
	assert.Len(t, params.Messages, 1)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		g := &Generator{messages: &fakeMessages{err: errors.New("overloaded")}, model: "m"}
		_, err := g.Generate(context.Background(), "s", "m", ai.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overloaded")
	})

	t.Run("no text", func(t *testing.T) {
		g := &Generator{messages: &fakeMessages{reply: &anthropic.Message{}}, model: "m"}
		_, err := g.Generate(context.Background(), "s", "m", ai.Options{})
		require.Error(t, err)
	})

	t.Run("empty prompt", func(t *testing.T) {
		g := &Generator{messages: &fakeMessages{}, model: "m"}
		_, err := g.Generate(context.Background(), " ", "", ai.Options{})
		require.Error(t, err)
	})
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator("  ", "")
	require.Error(t, err)

	g, err := NewGenerator("key", "")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, g.Model())
}

func TestGenerateUsesRequestModel(t *testing.T) {
	params := buildParams("claude-base", "sys", "msg", ai.Options{Model: "claude-cheap"})
	assert.Equal(t, anthropic.Model("claude-cheap"), params.Model)

	params = buildParams("claude-base", "sys", "msg", ai.Options{})
	assert.Equal(t, anthropic.Model("claude-base"), params.Model)
}

func TestGenerateStreams(t *testing.T) {
	fake := &fakeMessages{events: []ssestream.Event{
		{Type: "message_start", Data: []byte(`{"type":"message_start","message":{"id":"m1","type":"message","role":"assistant","content":[]}}`)},
		{Type: "ping", Data: []byte(`{}`)},
		textDelta("Neutral "),
		textDelta("wording."),
		{Type: "message_stop", Data: []byte(`{"type":"message_stop"}`)},
	}}
	g := &Generator{messages: fake, model: "claude-test"}

	var chunks []string
	out, err := g.Generate(context.Background(), "sys", "rewrite", ai.Options{Stream: func(c string) { chunks = append(chunks, c) }})
	require.NoError(t, err)
	assert.Equal(t, "Neutral wording.", out)
	assert.Equal(t, []string{"Neutral ", "wording."}, chunks)
	require.Len(t, fake.params, 1)
}

func TestGenerateStreamError(t *testing.T) {
	fake := &fakeMessages{err: errors.New("connection reset")}
	g := &Generator{messages: fake, model: "claude-test"}

	_, err := g.Generate(context.Background(), "sys", "rewrite", ai.Options{Stream: func(string) {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
