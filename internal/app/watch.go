package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/kuchikomi/internal/observability"
	"github.com/ibeckermayer/kuchikomi/internal/scheduler"
)

// watchJobTimeout bounds one scheduled pass over every watched yado.
const watchJobTimeout = 2 * time.Hour

// ScrapeAll scrapes each yado in turn. A failing yado is logged and does not
// stop the rest; the joined errors are returned.
func (a *App) ScrapeAll(ctx context.Context, yadoNos []string) error {
	var errs []error
	for _, yadoNo := range yadoNos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.Scrape(ctx, yadoNo); err != nil {
			a.log.Error().Err(err).Str("yado_no", yadoNo).Msg("scrape failed")
			errs = append(errs, fmt.Errorf("yado %s: %w", yadoNo, err))
		}
	}
	return errors.Join(errs...)
}

// Watch scrapes the configured yados on the configured schedule until ctx
// is cancelled, serving metrics alongside when an address is configured.
func (a *App) Watch(ctx context.Context) error {
	w := a.cfg.Watch
	if len(w.YadoNos) == 0 {
		return errors.New("watch.yado_nos is empty")
	}

	sched, err := scheduler.New(w.Timezone, watchJobTimeout, a.log)
	if err != nil {
		return err
	}
	// one job for all yados keeps scrapes sequential
	if err := sched.AddJob("scrape", w.Schedule, func(ctx context.Context) error {
		return a.ScrapeAll(ctx, w.YadoNos)
	}); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Metrics.Addr; addr != "" {
		reg := observability.InitRegistry()
		g.Go(func() error {
			return observability.Serve(ctx, addr, reg, a.log)
		})
	}

	g.Go(func() error {
		sched.Start()
		for _, j := range sched.ListJobs() {
			a.log.Info().Str("job", j.Name).Time("next_run", j.NextRun).Strs("yado_nos", w.YadoNos).Msg("watching")
		}
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	return g.Wait()
}
