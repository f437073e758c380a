package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/snipstorm/internal/app"
	"github.com/dshills/snipstorm/internal/config"
	"github.com/dshills/snipstorm/internal/logging"
	"github.com/dshills/snipstorm/internal/renderer/backend"
)

func newEditCommand(root *rootOptions) *cobra.Command {
	var watch bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive snippet playground",
		Long: `Open a terminal playground on an empty document.

Type a trigger and press Tab to expand it, Tab and Shift-Tab to move between
stops, Escape to leave the snippet, Ctrl-R to reload the definitions and
Ctrl-Q to quit. With --watch the definitions reload when a file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []config.Option
			if cmd.Flags().Changed("watch") {
				extra = append(extra, config.WithOverride("snippets.watch", watch))
			}

			// The screen owns the terminal, so logs go to a file or nowhere.
			logger := logging.Discard()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logger = logging.NewWithWriter(f, root.effectiveLevel())
			}

			s, cfg, err := root.openSession(logger, extra...)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Snippets.Watch {
				if err := s.Watch(ctx); err != nil {
					return err
				}
			}

			term, err := backend.NewTerminal()
			if err != nil {
				return fmt.Errorf("create terminal: %w", err)
			}
			return runPlayground(ctx, app.NewPlayground(s, term))
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload definitions when a file changes")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")

	return cmd
}

func runPlayground(ctx context.Context, p *app.Playground) error {
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// effectiveLevel returns the level selected by the global flags.
func (o *rootOptions) effectiveLevel() string {
	switch {
	case o.debug:
		return "debug"
	case o.logLevel != "":
		return o.logLevel
	}
	return config.DefaultLogLevel
}
