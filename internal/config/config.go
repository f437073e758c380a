package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/snipstorm/internal/config/loader"
)

// Defaults for settings not given by any source.
const (
	DefaultLogLevel          = "info"
	DefaultExpressionTimeout = 2 * time.Second
	DefaultCallLimit         = 10_000
)

// Config is the resolved snipstorm configuration.
type Config struct {
	Logging    LoggingConfig
	Snippets   SnippetsConfig
	Expression ExpressionConfig

	// Path is the configuration file that was read, or "" when none was.
	Path string
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string
}

// SnippetsConfig names the snippet definition files.
type SnippetsConfig struct {
	Paths []string
	// Watch reloads the definitions when a file changes.
	Watch bool
}

// ExpressionConfig bounds host expression evaluation.
type ExpressionConfig struct {
	Timeout   time.Duration
	CallLimit int64
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: DefaultLogLevel},
		Expression: ExpressionConfig{
			Timeout:   DefaultExpressionTimeout,
			CallLimit: DefaultCallLimit,
		},
	}
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"logging":    map[string]any{"level": d.Logging.Level},
		"snippets":   map[string]any{"watch": d.Snippets.Watch},
		"expression": map[string]any{
			"timeout":   d.Expression.Timeout,
			"callLimit": d.Expression.CallLimit,
		},
	}
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	path      string
	fs        loader.FileSystem
	envOpts   []loader.EnvOption
	overrides map[string]any
}

// WithPath sets the configuration file. A missing file is an error when
// the path is given explicitly.
func WithPath(path string) Option {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithFS sets the file system used to read the configuration file.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnvOptions passes options to the environment loader.
func WithEnvOptions(opts ...loader.EnvOption) Option {
	return func(o *loadOptions) {
		o.envOpts = append(o.envOpts, opts...)
	}
}

// WithOverride sets a value by dotted path above every other source.
func WithOverride(path string, value any) Option {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		loader.SetPath(o.overrides, path, value)
	}
}

// DefaultPath returns the user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "snipstorm", "config.toml")
}

// Load resolves the configuration from defaults, the TOML file,
// SNIPSTORM_* environment variables and overrides, in increasing priority.
// Relative snippet paths in the file are taken relative to the file.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{fs: loader.DefaultFS()}
	for _, opt := range opts {
		opt(&o)
	}

	path, explicit := o.path, o.path != ""
	if !explicit {
		path = DefaultPath()
	}

	data := defaultMap()
	var used string
	if path != "" {
		_, statErr := o.fs.Stat(path)
		switch {
		case statErr == nil:
			fileData, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
			if err != nil {
				return nil, err
			}
			resolveSnippetPaths(fileData, filepath.Dir(path))
			data = loader.DeepMerge(data, fileData)
			used = path
		case errors.Is(statErr, fs.ErrNotExist) && !explicit:
		case errors.Is(statErr, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		default:
			return nil, fmt.Errorf("config %s: %w", path, statErr)
		}
	}

	envData, err := loader.NewEnvLoader(loader.DefaultEnvPrefix, o.envOpts...).Load()
	if err != nil {
		return nil, err
	}
	data = loader.DeepMerge(data, envData)
	data = loader.DeepMerge(data, o.overrides)

	cfg, err := FromMap(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = used
	return cfg, nil
}

func resolveSnippetPaths(data map[string]any, dir string) {
	paths, ok := loader.Lookup(data, "snippets.paths")
	if !ok {
		return
	}
	list, ok := paths.([]any)
	if !ok {
		return
	}
	for i, p := range list {
		if s, ok := p.(string); ok && !filepath.IsAbs(s) {
			list[i] = filepath.Join(dir, s)
		}
	}
}

// FromMap builds and validates a Config from a merged settings map.
func FromMap(data map[string]any) (*Config, error) {
	cfg := Default()
	var err error

	if cfg.Logging.Level, err = getString(data, "logging.level", cfg.Logging.Level); err != nil {
		return nil, err
	}
	if cfg.Snippets.Paths, err = getStrings(data, "snippets.paths"); err != nil {
		return nil, err
	}
	if cfg.Snippets.Watch, err = getBool(data, "snippets.watch", cfg.Snippets.Watch); err != nil {
		return nil, err
	}
	if cfg.Expression.Timeout, err = getDuration(data, "expression.timeout", cfg.Expression.Timeout); err != nil {
		return nil, err
	}
	if cfg.Expression.CallLimit, err = getInt(data, "expression.callLimit", cfg.Expression.CallLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks setting ranges.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}
	if c.Expression.Timeout < 0 {
		return &ValidationError{Path: "expression.timeout", Message: "must not be negative", Value: c.Expression.Timeout}
	}
	if c.Expression.CallLimit < 0 {
		return &ValidationError{Path: "expression.callLimit", Message: "must not be negative", Value: c.Expression.CallLimit}
	}
	return nil
}

// ============================================================================
// Typed accessors
// ============================================================================

func typeError(path, expected string, v any) error {
	return &TypeError{Path: path, Expected: expected, Actual: fmt.Sprintf("%T", v)}
}

func getString(data map[string]any, path, def string) (string, error) {
	v, ok := loader.Lookup(data, path)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", typeError(path, "string", v)
	}
	return s, nil
}

func getBool(data map[string]any, path string, def bool) (bool, error) {
	v, ok := loader.Lookup(data, path)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	}
	return false, typeError(path, "bool", v)
}

func getInt(data map[string]any, path string, def int64) (int64, error) {
	v, ok := loader.Lookup(data, path)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, typeError(path, "integer", v)
}

// getDuration accepts a time.Duration or a duration string such as "500ms".
func getDuration(data map[string]any, path string, def time.Duration) (time.Duration, error) {
	v, ok := loader.Lookup(data, path)
	if !ok {
		return def, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, &ValidationError{Path: path, Message: "invalid duration", Value: d}
		}
		return parsed, nil
	}
	return 0, typeError(path, "duration", v)
}

func getStrings(data map[string]any, path string) ([]string, error) {
	v, ok := loader.Lookup(data, path)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(path, "array of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{list}, nil
	}
	return nil, typeError(path, "array of strings", v)
}
