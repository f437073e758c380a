// Package cli provides the Cobra command structure for snipstorm.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/snipstorm/internal/app"
	"github.com/dshills/snipstorm/internal/config"
	"github.com/dshills/snipstorm/internal/logging"
)

var (
	// ErrUnknownTrigger is returned when expand is given a trigger with no
	// definition.
	ErrUnknownTrigger = errors.New("unknown trigger")

	// ErrInvalidColor is returned for an unrecognized --color value.
	ErrInvalidColor = errors.New("invalid color mode")
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	color      string
	debug      bool
	snippets   []string
}

// NewRootCommand creates the root snipstorm command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "snipstorm",
		Short: "Expand and navigate text snippets",
		Long: `snipstorm expands snippet triggers into live placeholder regions.

Tab stops, mirrors and host expressions stay consistent while the expansion
is edited. Definitions are TOML files listed in the configuration or given
with --snippets.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetDefault(logging.NewWithWriter(cmd.ErrOrStderr(), opts.effectiveLevel()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.configPath, "config", "", "path to config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.color, "color", "auto", "colorize output: auto, always, never")
	flags.StringArrayVarP(&opts.snippets, "snippets", "s", nil,
		"snippet definition file, replaces the configured files (repeatable)")

	rootCmd.AddCommand(newExpandCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newEditCommand(opts))
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

// loadConfig resolves the configuration with the global flags applied on
// top of every other source.
func (o *rootOptions) loadConfig(extra ...config.Option) (*config.Config, error) {
	var opts []config.Option
	if o.configPath != "" {
		opts = append(opts, config.WithPath(o.configPath))
	}
	if o.debug {
		opts = append(opts, config.WithOverride("logging.level", "debug"))
	} else if o.logLevel != "" {
		opts = append(opts, config.WithOverride("logging.level", o.logLevel))
	}
	if len(o.snippets) > 0 {
		paths := make([]string, 0, len(o.snippets))
		for _, p := range o.snippets {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("snippet path %s: %w", p, err)
			}
			paths = append(paths, abs)
		}
		opts = append(opts, config.WithOverride("snippets.paths", paths))
	}

	cfg, err := config.Load(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads the configuration and creates a session from it.
func (o *rootOptions) openSession(logger *log.Logger, extra ...config.Option) (*app.Session, *config.Config, error) {
	cfg, err := o.loadConfig(extra...)
	if err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = logging.Default()
		logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	}
	s, err := app.NewSession(cfg, app.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}
