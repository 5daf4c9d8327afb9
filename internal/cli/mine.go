package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/kuchikomi/internal/app"
	"github.com/ibeckermayer/kuchikomi/internal/mining"
)

func (r *runner) mineCmd() *cobra.Command {
	var opts mining.Options
	cmd := &cobra.Command{
		Use:   "mine --yado_no <id>",
		Short: "Report frequent terms and clusters of similar reviews from the output file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.yadoNo == "" {
				return errYadoRequired
			}
			tok, err := r.deps.NewTokenizer()
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				report, err := a.Mine(ctx, r.yadoNo, tok, opts)
				if err != nil {
					return err
				}
				r.printReport(report)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.Top, "top", 30, "number of terms to list")
	cmd.Flags().IntVar(&opts.Clusters, "clusters", 4, "number of review clusters, 0 to skip")
	return cmd
}

func (r *runner) printReport(report *mining.Report) {
	fmt.Fprintf(r.deps.Stdout, "%d reviews\n", report.Reviews)

	terms := table.NewWriter()
	terms.SetOutputMirror(r.deps.Stdout)
	terms.AppendHeader(table.Row{"Term", "Count"})
	for _, tc := range report.Terms {
		terms.AppendRow(table.Row{tc.Term, tc.Count})
	}
	terms.SetStyle(table.StyleRounded)
	terms.Render()

	if len(report.Clusters) == 0 {
		return
	}

	clusters := table.NewWriter()
	clusters.SetOutputMirror(r.deps.Stdout)
	clusters.AppendHeader(table.Row{"Cluster", "Reviews", "Terms", "Titles"})
	for _, c := range report.Clusters {
		clusters.AppendRow(table.Row{c.ID, c.Size, strings.Join(c.TopTerms, " "), sample(c.Titles, 3)})
	}
	clusters.SetStyle(table.StyleRounded)
	clusters.Render()
}

// sample joins the first n titles, marking the rest as elided.
func sample(titles []string, n int) string {
	if len(titles) <= n {
		return strings.Join(titles, " / ")
	}
	return strings.Join(titles[:n], " / ") + fmt.Sprintf(" (+%d)", len(titles)-n)
}
