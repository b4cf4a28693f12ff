package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
)

type testConfig struct {
	Name     string        `koanf:"name"`
	Port     int           `koanf:"port"`
	Timeout  time.Duration `koanf:"timeout"`
	Optional string        `koanf:"optional"`
	Tags     []string      `koanf:"tags"`
	Nested   *nestedConfig `koanf:"nested"`
	Inline   nestedConfig  `koanf:"inline"`
	skipped  string
}

type nestedConfig struct {
	Value string `koanf:"value"`
}

func TestDefaultsFrom(t *testing.T) {
	t.Parallel()

	k := koanf.New(".")
	err := k.Load(defaultsFrom(testConfig{
		Name:    "drinks-api",
		Port:    8080,
		Timeout: 30 * time.Second,
		Tags:    []string{"a"},
		Nested:  &nestedConfig{Value: "nested-value"},
		skipped: "x",
	}), nil)
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"name", "drinks-api"},
		{"port", 8080},
		{"timeout", 30 * time.Second},
		{"nested.value", "nested-value"},
		{"tags", []string{"a"}},
	}
	for _, tt := range tests {
		if got := k.Get(tt.key); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	for _, key := range []string{"optional", "inline", "skipped"} {
		if k.Exists(key) {
			t.Errorf("zero or unexported field %q should not be set", key)
		}
	}
}

func TestDefaultsFrom_Errors(t *testing.T) {
	t.Parallel()

	if _, err := defaultsFrom("not a struct").Read(); err == nil {
		t.Error("Read() on non-struct error = nil")
	}
	if _, err := defaultsFrom(testConfig{}).ReadBytes(); !errors.Is(err, errReadBytes) {
		t.Errorf("ReadBytes() error = %v, want %v", err, errReadBytes)
	}
	m, err := defaultsFrom((*testConfig)(nil)).Read()
	if err != nil || m != nil {
		t.Errorf("Read() on nil pointer = %v, %v; want nil, nil", m, err)
	}
}

func TestResolveSecrets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dsn"), []byte("  postgres://db  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		input     map[string]any
		want      map[string]any
		errSubstr string
	}{
		{
			name:  "plain values unchanged",
			input: map[string]any{"addr": ":8080", "port": 5432},
			want:  map[string]any{"addr": ":8080", "port": 5432},
		},
		{
			name:  "nested file uri trimmed",
			input: map[string]any{"postgres": map[string]any{"dsn": "file://" + filepath.Join(dir, "dsn")}},
			want:  map[string]any{"postgres": map[string]any{"dsn": "postgres://db"}},
		},
		{
			name:      "missing file names the key",
			input:     map[string]any{"auth": map[string]any{"audience": "file://" + filepath.Join(dir, "absent")}},
			errSubstr: "resolve auth.audience",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveMap(tt.input, "")
			if tt.errSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("resolveMap() error = %v, want containing %q", err, tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveMap() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolveMap() = %v, want %v", got, tt.want)
			}
		})
	}
}
