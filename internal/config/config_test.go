package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/snipstorm/internal/config/loader"
)

func noEnv() Option {
	return WithEnvOptions(loader.WithEnviron(func() []string { return nil }))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Expression.Timeout != DefaultExpressionTimeout {
		t.Errorf("Expression.Timeout = %v, want %v", cfg.Expression.Timeout, DefaultExpressionTimeout)
	}
	if cfg.Expression.CallLimit != DefaultCallLimit {
		t.Errorf("Expression.CallLimit = %d, want %d", cfg.Expression.CallLimit, DefaultCallLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(WithFS(loader.NewMemFS()), noEnv())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(WithFS(loader.NewMemFS()), WithPath("/nope.toml"), noEnv())
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	memfs := loader.NewMemFS()
	memfs.AddFile("/home/ada/.config/snipstorm/config.toml", `
[logging]
level = "warn"

[snippets]
paths = ["go.toml", "/abs/md.toml"]
watch = true

[expression]
timeout = "750ms"
callLimit = 5
`)

	cfg, err := Load(
		WithFS(memfs),
		WithPath("/home/ada/.config/snipstorm/config.toml"),
		WithEnvOptions(loader.WithEnviron(func() []string {
			return []string{"SNIPSTORM_EXPR_CALL_LIMIT=9", "SNIPSTORM_LOG_LEVEL=error"}
		})),
		WithOverride("logging.level", "debug"),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Snippets: SnippetsConfig{
			Paths: []string{"/home/ada/.config/snipstorm/go.toml", "/abs/md.toml"},
			Watch: true,
		},
		Expression: ExpressionConfig{Timeout: 750 * time.Millisecond, CallLimit: 9},
		Path:       "/home/ada/.config/snipstorm/config.toml",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() = %+v\nwant %+v", cfg, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		target error
	}{
		{"wrong type", "[logging]\nlevel = 3\n", ErrTypeMismatch},
		{"bad level", "[logging]\nlevel = \"loud\"\n", ErrValidationFailed},
		{"bad duration", "[expression]\ntimeout = \"soon\"\n", ErrValidationFailed},
		{"negative limit", "[expression]\ncallLimit = -1\n", ErrValidationFailed},
		{"bool as string", "[snippets]\nwatch = \"maybe\"\n", ErrTypeMismatch},
		{"paths not strings", "[snippets]\npaths = [1]\n", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := loader.NewMemFS()
			memfs.AddFile("/c.toml", tt.file)
			_, err := Load(WithFS(memfs), WithPath("/c.toml"), noEnv())
			if !errors.Is(err, tt.target) {
				t.Errorf("Load() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestLoadParseError(t *testing.T) {
	memfs := loader.NewMemFS()
	memfs.AddFile("/c.toml", "[logging\n")
	_, err := Load(WithFS(memfs), WithPath("/c.toml"), noEnv())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
}

func TestFromMapAcceptsEnvironmentTypes(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"snippets":   map[string]any{"watch": int64(1), "paths": "/one.toml"},
		"expression": map[string]any{"timeout": 3 * time.Second},
	})
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if !cfg.Snippets.Watch {
		t.Error("Snippets.Watch = false, want true")
	}
	if !reflect.DeepEqual(cfg.Snippets.Paths, []string{"/one.toml"}) {
		t.Errorf("Snippets.Paths = %v", cfg.Snippets.Paths)
	}
	if cfg.Expression.Timeout != 3*time.Second {
		t.Errorf("Expression.Timeout = %v, want 3s", cfg.Expression.Timeout)
	}
}
