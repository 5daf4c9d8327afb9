package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/kuchikomi/internal/app"
)

var errYadoRequired = errors.New("--yado_no is required")

func (r *runner) reparseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reparse --yado_no <id>",
		Short: "Rebuild the output file from the latest saved page snapshots.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.yadoNo == "" {
				return errYadoRequired
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Reparse(ctx, r.yadoNo)
				if err != nil {
					return err
				}
				fmt.Fprintf(r.deps.Stdout, "%d reviews from %d snapshots written to %s\n", len(res.Reviews), res.Pages, res.OutputPath)
				return nil
			})
		},
	}
}

func (r *runner) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs --yado_no <id>",
		Short: "List stored scrape runs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.yadoNo == "" {
				return errYadoRequired
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				runs, err := a.Runs(r.yadoNo, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(r.deps.Stdout, "no runs stored")
					return nil
				}

				t := table.NewWriter()
				t.SetOutputMirror(r.deps.Stdout)
				t.AppendHeader(table.Row{"Run", "Started", "Pages", "Reviews", "Took"})
				for _, run := range runs {
					t.AppendRow(table.Row{
						run.ID,
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.Pages,
						run.ReviewCount,
						run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
					})
				}
				t.SetStyle(table.StyleRounded)
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list")
	return cmd
}

func (r *runner) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Scrape the configured yados on a cron schedule until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Watch(ctx)
			})
		},
	}
}

func (r *runner) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache|output>",
		Short:     "Open the config file, the cache directory or the output directory.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "cache", "output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := r.resolveTarget(args[0])
			if err != nil {
				return err
			}
			return r.deps.OpenPath(path)
		},
	}
}

func (r *runner) resolveTarget(target string) (string, error) {
	cfg, path, err := r.loadConfig()
	if err != nil {
		return "", err
	}
	switch target {
	case "config":
		return path, nil
	case "cache":
		return cfg.ResolvedCacheDir()
	case "output":
		return cfg.Output.Dir, nil
	default:
		return "", fmt.Errorf("unknown target %q", target)
	}
}
