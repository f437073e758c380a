package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/snipstorm/internal/app"
)

func newExpandCommand(root *rootOptions) *cobra.Command {
	var keys string

	cmd := &cobra.Command{
		Use:   "expand TRIGGER",
		Short: "Expand a trigger and print the result",
		Long: `Expand TRIGGER in an empty document and print the text.

A key script replays edits after the expansion. Literal text is typed;
<tab>, <s-tab>, <bs>, <cr>, <esc> and <undo> press keys and <lt> types "<".
The active stop and its mirrors are highlighted when color is enabled.`,
		Example: `  snipstorm expand -s go.toml fn
  snipstorm expand -s go.toml fn --keys 'main<tab>x int<tab>return nil'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, root, args[0], keys)
		},
	}

	cmd.Flags().StringVarP(&keys, "keys", "k", "", "key script replayed after the expansion")

	return cmd
}

func runExpand(cmd *cobra.Command, root *rootOptions, trigger, keys string) error {
	out := cmd.OutOrStdout()
	color, err := colorEnabled(root.color, out)
	if err != nil {
		return err
	}
	script, err := app.ParseKeys(keys)
	if err != nil {
		return err
	}

	s, _, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, ok := s.Manager().Lookup(trigger); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}
	if err := s.Type(trigger); err != nil {
		return err
	}
	if err := s.Tab(false); err != nil {
		return fmt.Errorf("expand %q: %w", trigger, err)
	}
	if err := s.Replay(script); err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, newStyles(out, color).render(s.View()))
	return err
}
