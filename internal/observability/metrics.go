package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PagesScraped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "pages_scraped_total", Help: "Listing pages extracted."},
		[]string{"yado_no"},
	)
	ReviewsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "reviews_extracted_total", Help: "Review cards extracted."},
		[]string{"yado_no"},
	)
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "runs_total", Help: "Scrape runs by outcome."},
		[]string{"yado_no", "status"}, // status: ok|error
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kuchikomi", Name: "run_duration_seconds",
			Help:    "Scrape run duration seconds.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"yado_no"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PagesScraped, ReviewsExtracted, Runs, RunDuration)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveRun(yadoNo string, pages, reviews int, dur time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	Runs.WithLabelValues(yadoNo, status).Inc()
	RunDuration.WithLabelValues(yadoNo).Observe(dur.Seconds())
	PagesScraped.WithLabelValues(yadoNo).Add(float64(pages))
	ReviewsExtracted.WithLabelValues(yadoNo).Add(float64(reviews))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
