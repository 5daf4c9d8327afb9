// Package cli implements the kuchikomi command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/kuchikomi/internal/app"
	"github.com/ibeckermayer/kuchikomi/internal/config"
	"github.com/ibeckermayer/kuchikomi/internal/mining"
	"github.com/ibeckermayer/kuchikomi/internal/observability"
	"github.com/ibeckermayer/kuchikomi/internal/store"
)

const usage = "usage: kuchikomi --yado_no 12341234"

// Deps are the outside-world hooks of the command line.
type Deps struct {
	Stdout io.Writer

	// Log overrides the logger built from the config when set.
	Log          *zerolog.Logger
	NewLauncher  func(cfg config.ScrapingConfig) app.Launcher
	NewTokenizer func() (mining.Tokenizer, error)
	OpenPath     func(path string) error
}

// DefaultDeps launches Chrome and logs to stderr.
func DefaultDeps() Deps {
	return Deps{
		Stdout: os.Stdout,
		NewLauncher: func(cfg config.ScrapingConfig) app.Launcher {
			return app.NewChromeLauncher(cfg)
		},
		NewTokenizer: func() (mining.Tokenizer, error) {
			return mining.NewKagome()
		},
		OpenPath: browser.OpenFile,
	}
}

type runner struct {
	deps       Deps
	configPath string
	yadoNo     string
}

// NewRootCmd builds the command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	r := &runner{deps: deps}

	root := &cobra.Command{
		Use:           "kuchikomi --yado_no <id>",
		Short:         "kuchikomi scrapes jalan.net guest reviews of a yado into a delimited file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.yadoNo == "" {
				fmt.Fprintln(r.deps.Stdout, usage)
				return nil
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Scrape(ctx, r.yadoNo)
				if err != nil {
					return err
				}
				fmt.Fprintf(r.deps.Stdout, "%d reviews from %d pages written to %s\n", len(res.Reviews), res.Pages, res.OutputPath)
				return nil
			})
		},
	}
	root.SetOut(deps.Stdout)

	root.PersistentFlags().StringVar(&r.configPath, "config", "", "config file (default <user config dir>/kuchikomi/config.toml)")
	root.PersistentFlags().StringVar(&r.yadoNo, "yado_no", "", "jalan.net yado number")

	root.AddCommand(r.reparseCmd(), r.runsCmd(), r.watchCmd(), r.mineCmd(), r.openCmd(), r.fingerprintCmd())
	return root
}

// Execute runs the command line against os.Args. The returned error has not
// been reported yet.
func Execute(ctx context.Context) error {
	return NewRootCmd(DefaultDeps()).ExecuteContext(ctx)
}

// loadConfig reads the config file, writing the defaults on first run.
func (r *runner) loadConfig() (*config.Config, string, error) {
	path := r.configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		if err := cfg.SaveFile(path); err != nil {
			return nil, "", fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, path, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, path, nil
}

func (r *runner) logger(cfg *config.Config) zerolog.Logger {
	if r.deps.Log != nil {
		return *r.deps.Log
	}
	return observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
}

// withApp builds an App from the config and releases its store after fn.
func (r *runner) withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, path, err := r.loadConfig()
	if err != nil {
		return err
	}
	log := r.logger(cfg)
	log.Debug().Str("config", path).Msg("loaded config")

	var st *store.Store
	if cfg.Store.Enabled {
		dbPath, err := cfg.StorePath()
		if err != nil {
			return err
		}
		if st, err = store.New(dbPath); err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
	}

	a := app.New(cfg, r.deps.NewLauncher(cfg.Scraping), st, log)
	return fn(ctx, a)
}
