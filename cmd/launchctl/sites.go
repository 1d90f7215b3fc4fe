package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
)

func newSitesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "Print the launch site catalog with per-site outcome counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := launch.Load(cmd.Context(), launch.SourceConfig{Source: opts.source}, opts.logger(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SITE\tLAUNCHES\tSUCCESSES\tFAILURES")
			for _, site := range ds.Sites() {
				var ok, failed int
				for _, r := range filter.BySite(ds, filter.Selection(site)) {
					if r.Outcome == launch.Success {
						ok++
					} else {
						failed++
					}
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", site, ok+failed, ok, failed)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			b := ds.Payload()
			fmt.Fprintf(out, "\n%d records, payload %g kg - %g kg\n", ds.Len(), b.Min, b.Max)
			return nil
		},
	}
}
