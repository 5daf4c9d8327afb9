package cli

import (
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/kuchikomi/internal/browser"
)

const fingerprintURL = "https://bot.sannysoft.com"

// fingerprintCmd opens a visible browser with the scraper's launch flags on a
// bot detection page so the fingerprint can be inspected by hand.
func (r *runner) fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "fingerprint",
		Short:  "Open bot.sannysoft.com with the scraper's browser flags until interrupted.",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := r.loadConfig()
			if err != nil {
				return err
			}

			sess, err := browser.Open(cmd.Context(), browser.Options(browser.Settings{
				Headless:  false, // visible so it can be inspected
				Width:     cfg.Scraping.WindowWidth,
				Height:    cfg.Scraping.WindowHeight,
				UserAgent: cfg.Scraping.UserAgent,
			}))
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.SetAcceptLanguage(cfg.Scraping.AcceptLanguage); err != nil {
				return err
			}
			if err := chromedp.Run(sess.Context(),
				chromedp.Navigate(fingerprintURL),
				chromedp.WaitVisible("body", chromedp.ByQuery),
			); err != nil {
				return fmt.Errorf("failed to navigate: %w", err)
			}

			fmt.Fprintln(r.deps.Stdout, "Press Ctrl-C to close the browser...")
			<-cmd.Context().Done()
			return nil
		},
	}
}
