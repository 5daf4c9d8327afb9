package app

import (
	"context"

	"github.com/ibeckermayer/kuchikomi/internal/mining"
	"github.com/ibeckermayer/kuchikomi/internal/output"
)

// Mine analyzes the output file of a yado: term frequencies over the review
// titles and bodies, and clusters of similar reviews.
func (a *App) Mine(ctx context.Context, yadoNo string, tok mining.Tokenizer, opts mining.Options) (*mining.Report, error) {
	comma, err := a.cfg.Comma()
	if err != nil {
		return nil, err
	}

	path := a.OutputPath(yadoNo)
	reviews, err := output.ReadReviews(path, comma, a.cfg.Output.Header)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := mining.Analyze(tok, reviews, opts)
	a.log.Info().Str("yado_no", yadoNo).Int("reviews", report.Reviews).Int("clusters", len(report.Clusters)).Msg("mined reviews")
	return report, nil
}
