// Package schema turns free-form model output into validated Go values.
//
// Model output is treated as untrusted: it is stripped of markdown fences,
// decoded as JSON, coerced into the target struct with weak typing (a score
// of "8" is accepted as 8) and finally checked by the target's Validate method.
// Every failure is reported as a *ParseError.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Validator is implemented by every decode target.
type Validator interface {
	Validate() error
}

// normalizer is implemented by targets that canonicalize values (enum case, ordering)
// before validation.
type normalizer interface {
	Normalize()
}

// ParseError reports model output that is not valid structured data or violates the schema.
type ParseError struct {
	Target string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("parse model output: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Target, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Decode parses raw into target and validates it. name is used in error messages.
func Decode(raw, name string, target Validator) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return &ParseError{Target: name, Raw: raw, Err: errors.New("empty response")}
	}

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return &ParseError{Target: name, Raw: raw, Err: fmt.Errorf("invalid json: %w", err)}
	}

	if _, ok := data.(map[string]any); !ok {
		return &ParseError{Target: name, Raw: raw, Err: fmt.Errorf("expected a json object, got %T", data)}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("build decoder for %s: %w", name, err)
	}

	if err := decoder.Decode(data); err != nil {
		return &ParseError{Target: name, Raw: raw, Err: err}
	}

	if n, ok := target.(normalizer); ok {
		n.Normalize()
	}

	if err := target.Validate(); err != nil {
		return &ParseError{Target: name, Raw: raw, Err: err}
	}

	return nil
}

// ExtractJSON strips markdown code fences and any prose around the outermost JSON object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

// NonEmpty trims every entry and drops blank ones.
func NonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
