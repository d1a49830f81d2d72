package tools

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agentplatform/internal/app"
)

var Cmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		catalog, err := app.NewCatalog(cfg, nil)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tIMPLEMENTATION\tPARAMETERS\tDESCRIPTION")
		for _, spec := range catalog.Specs() {
			var params []string
			for _, name := range spec.ParamNames() {
				p := spec.Parameters[name]
				var flags []string
				if p.Required {
					flags = append(flags, "required")
				}
				if p.Hidden {
					flags = append(flags, "hidden")
				}
				if p.IsCredential {
					flags = append(flags, "credential")
				}
				if len(flags) > 0 {
					name += "(" + strings.Join(flags, ",") + ")"
				}
				params = append(params, name)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", spec.ID, spec.Implementation, strings.Join(params, " "), spec.Description)
		}
		return tw.Flush()
	},
}
