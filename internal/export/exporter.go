// Package export renders evaluation results as JSON, a generic structured object or YAML
// and optionally writes them to a file.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatJSON             = "json"
	FormatStructuredObject = "structuredObject"
	FormatYAML             = "yaml"
)

var formatAliases = map[string]string{
	"json":             FormatJSON,
	"structuredobject": FormatStructuredObject,
	"dict":             FormatStructuredObject,
	"object":           FormatStructuredObject,
	"yaml":             FormatYAML,
	"yml":              FormatYAML,
}

// UnsupportedFormatError is returned for an unknown export format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}

// ExportError reports a failure to write an export to its destination.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Output is the rendered form of an exported value. Text is set for json and yaml,
// Object for structuredObject.
type Output struct {
	Format string
	Text   string
	Object map[string]any
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (string, error) {
	format, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedFormatError{Format: name}
	}
	return format, nil
}

// Export renders v in the given format. When path is not empty the rendering is also
// written to that file; a structured object is written as indented JSON.
func Export(v any, format, path string) (*Output, error) {
	resolved, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	out := &Output{Format: resolved}
	var data []byte

	switch resolved {
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		out.Text = string(data)
	case FormatStructuredObject:
		out.Object, err = toObject(v)
		if err != nil {
			return nil, err
		}
		data, err = json.MarshalIndent(out.Object, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		data, err = encodeYAML(v)
		if err != nil {
			return nil, err
		}
		out.Text = string(data)
	}

	if path != "" {
		if err := writeFile(path, data); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// toObject converts v into plain maps and slices through its JSON form, so the
// object has the same keys as the JSON export.
func toObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	var object map[string]any
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("value is not an object: %w", err)
	}
	return object, nil
}

// encodeYAML goes through the structured object as well, so YAML keys follow the JSON
// field names.
func encodeYAML(v any) ([]byte, error) {
	object, err := toObject(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(object); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &ExportError{Path: path, Err: cerr}
		}
	}()

	if _, err := f.Write(data); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

// IsUnsupportedFormat reports whether err wraps an *UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}
