package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var bodyEscaper = strings.NewReplacer("\n", `\n`, "\t", `\t`)

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the loaded snippet definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cfg, err := root.openSession(nil)
			if err != nil {
				return err
			}
			defer s.Close()

			snippets := s.Manager().Snippets()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Trigger", "Description", "Body"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetAutoWrapText(false)
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

			for _, sn := range snippets {
				table.Append([]string{sn.Trigger, sn.Description, bodyEscaper.Replace(sn.Template)})
			}
			table.SetFooter([]string{
				fmt.Sprintf("%d snippets", len(snippets)),
				fmt.Sprintf("%d files", len(cfg.Snippets.Paths)),
				"",
			})
			table.Render()
			return nil
		},
	}
}
