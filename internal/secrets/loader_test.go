package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("DA_TEST_KEY", "from-env")

	got, err := Load(Source{Name: "api key", Value: "inline", File: path, Env: "DA_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadInlineBeforeEnv(t *testing.T) {
	t.Setenv("DA_TEST_KEY", "from-env")

	got, err := Load(Source{Value: " inline ", Env: "DA_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline secret, got %q", got)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("DA_TEST_KEY", "from-env")

	got, err := Load(Source{Env: "DA_TEST_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("DA_TEST_EMPTY", "")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "missing file", src: Source{Name: "key", File: filepath.Join(t.TempDir(), "nope")}, want: "reading key from file"},
		{name: "empty file", src: Source{Name: "key", File: empty, Env: "DA_TEST_EMPTY"}, want: "is empty"},
		{name: "nothing configured", src: Source{}, want: "secret is not configured"},
		{name: "empty env", src: Source{Name: "key", Env: "DA_TEST_EMPTY"}, want: "checked $DA_TEST_EMPTY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
