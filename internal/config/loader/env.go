package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultEnvPrefix is the prefix of snipstorm environment variables.
const DefaultEnvPrefix = "SNIPSTORM_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "SNIPSTORM_")
	mapping map[string]string // Env var -> config path
	lists   map[string]bool   // Config paths split on the path list separator
	environ func() []string
}

// EnvOption configures an EnvLoader.
type EnvOption func(*EnvLoader)

// WithEnviron replaces os.Environ as the variable source.
func WithEnviron(environ func() []string) EnvOption {
	return func(l *EnvLoader) {
		if environ != nil {
			l.environ = environ
		}
	}
}

// WithMapping replaces the default variable mapping.
func WithMapping(mapping map[string]string) EnvOption {
	return func(l *EnvLoader) {
		l.mapping = mapping
	}
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string, opts ...EnvOption) *EnvLoader {
	l := &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		lists:   map[string]bool{"snippets.paths": true},
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":       "logging.level",
		prefix + "SNIPPETS":        "snippets.paths",
		prefix + "WATCH":           "snippets.watch",
		prefix + "EXPR_TIMEOUT":    "expression.timeout",
		prefix + "EXPR_CALL_LIMIT": "expression.callLimit",
	}
}

// Load reads environment variables and returns a configuration map.
// Mapped variables go to their configured path; any other prefixed
// variable is converted by name, so SNIPSTORM_LOGGING_LEVEL sets
// logging.level. Empty values are kept.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, kv := range l.environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		if path := l.envToPath(name); path != "" {
			l.set(config, path, val)
		}
	}

	// Mapped variables win over a converted name for the same path.
	for name, path := range l.mapping {
		if val, ok := l.lookup(name); ok {
			l.set(config, path, val)
		}
	}

	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// AddMapping adds or replaces a variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// RemoveMapping removes a variable mapping.
func (l *EnvLoader) RemoveMapping(envVar string) {
	delete(l.mapping, envVar)
}

func (l *EnvLoader) set(config map[string]any, path, val string) {
	if l.lists[path] {
		SetPath(config, path, splitList(val))
		return
	}
	SetPath(config, path, parseValue(val))
}

func (l *EnvLoader) lookup(name string) (string, bool) {
	for _, kv := range l.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v, true
		}
	}
	return "", false
}

// envToPath converts SNIPSTORM_EXPRESSION_CALL_LIMIT to expression.callLimit.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}

	setting := parts[1]
	for _, part := range parts[2:] {
		if part != "" {
			setting += strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return parts[0] + "." + setting
}

// parseValue converts a variable's text to the most specific type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

func splitList(s string) []any {
	var out []any
	for _, item := range filepath.SplitList(s) {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
