// Package config resolves snipstorm settings and reads snippet definitions.
//
// Settings come from four sources, each overriding the one before:
//
//	┌─────────────────────────────┐
//	│  4. Command line overrides  │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. SNIPSTORM_* variables   │
//	├─────────────────────────────┤
//	│  2. config.toml             │  ← ~/.config/snipstorm/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A configuration file looks like:
//
//	"@include" = ["shared.toml"]
//
//	[logging]
//	level = "debug"
//
//	[snippets]
//	paths = ["go.toml", "markdown.toml"]
//	watch = true
//
//	[expression]
//	timeout = "500ms"
//	callLimit = 1000
//
// Snippet definition files hold an array of [[snippet]] tables and are read
// with LoadSnippets. Unknown keys in a definition file are rejected with a
// ParseError carrying the line and column.
//
// # Sub-packages
//
//   - loader: TOML files, environment variables, map merging
//   - watcher: change notification for definition files
package config
