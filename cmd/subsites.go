package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSubsitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subsites",
		Short: "List the supported subsites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			sites := appInstance.GetSites()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLIBRARY\tID KEY\tBASE URL")
			for _, name := range sites.Names() {
				s := sites[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Library, s.IDKey, s.BaseURL)
			}
			return tw.Flush()
		},
	}
}
