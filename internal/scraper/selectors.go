package scraper

// jalan.net kuchikomi DOM selectors
// These are isolated here because the listing markup changes without notice
// Update these when scraping breaks

// XPath selectors used against the live page (chromedp.BySearch)
const (
	ReviewCardXPath = `//div[contains(@class, 'user-kuchikomi')]`
	NextLinkXPath   = `//nav/a[@class='next']`
)

// CSS selectors used against a page snapshot (goquery).
// Exact class matches mirror the XPath [@class='...'] tests.
const (
	ReviewCard   = `div[class*="user-kuchikomi"]`
	ReviewerName = `p[class="user-name"]` // descendant of the card
	PostDate     = `p[class="post-date"]` // descendant of the card
	CommentText  = `p[class="text"]`      // direct child of the card
	RateBlock    = `div[class="rate"]`    // direct child of the card
	ScoreList    = `dl`                   // child of RateBlock
	ScoreValue   = `dd`                   // child of ScoreList
)

// Separators used when splitting element text
const (
	ReviewerSeparator = "/"
	PostDateSeparator = "："
)
