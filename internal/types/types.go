package types

// Review represents one review card scraped from a kuchikomi listing page
type Review struct {
	Sex    string   `json:"sex"`
	Age    string   `json:"age"`
	Date   string   `json:"date"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Scores []string `json:"scores"` // sub-scores in page order
}

// Row returns the review as an output row: the five text fields followed
// by every sub-score.
func (r Review) Row() []string {
	row := make([]string, 0, 5+len(r.Scores))
	row = append(row, r.Sex, r.Age, r.Date, r.Title, r.Body)
	return append(row, r.Scores...)
}

// ScrapeResult is the outcome of one full pass over a listing
type ScrapeResult struct {
	YadoNo  string
	URL     string
	Pages   int
	Reviews []Review
}
