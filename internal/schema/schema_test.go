package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags"`
}

func (s *sample) Normalize() {
	s.Tags = NonEmpty(s.Tags)
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Tags) == 0 {
		return errors.New("tags must not be empty")
	}
	return nil
}

func TestDecode(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		var s sample
		require.NoError(t, Decode(`{"name":"a","score":7,"tags":["x"]}`, "sample", &s))
		assert.Equal(t, "a", s.Name)
		assert.Equal(t, 7.0, s.Score)
	})

	t.Run("fenced object with weak types", func(t *testing.T) {
		var s sample
		raw := "```json\n{\"name\":\"a\",\"score\":\"8.5\",\"tags\":[\" x \", \"\"]}\n```"
		require.NoError(t, Decode(raw, "sample", &s))
		assert.Equal(t, 8.5, s.Score)
		assert.Equal(t, []string{"x"}, s.Tags)
	})

	t.Run("prose around object", func(t *testing.T) {
		var s sample
		require.NoError(t, Decode(`Here you go: {"name":"a","tags":["x"]} hope it helps`, "sample", &s))
		assert.Equal(t, "a", s.Name)
	})

	t.Run("invalid json", func(t *testing.T) {
		var s sample
		err := Decode(`{"name":`, "sample", &s)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})

	t.Run("not an object", func(t *testing.T) {
		var s sample
		err := Decode(`["a"]`, "sample", &s)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "sample", pe.Target)
	})

	t.Run("validation failure", func(t *testing.T) {
		var s sample
		err := Decode(`{"name":"a","tags":["  "]}`, "sample", &s)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), "tags must not be empty")
	})

	t.Run("empty", func(t *testing.T) {
		var s sample
		assert.True(t, IsParseError(Decode("   ", "sample", &s)))
	})
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON(`result: {"a":1}`))
	assert.Equal(t, "no json", ExtractJSON("no json"))
}
