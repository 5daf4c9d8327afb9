// Package mining summarizes scraped reviews: term frequencies and clusters of
// similar reviews.
package mining

import (
	"sort"
	"strings"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// DefaultStopWords are dropped before counting. Mostly particles, auxiliary
// verbs and words every lodging review contains.
var DefaultStopWords = []string{
	"てる", "いる", "なる", "れる", "する", "ある", "こと", "これ", "さん", "して",
	"くれる", "やる", "くださる", "そう", "せる", "した",
	"それ", "ここ", "ちゃん", "くん", "て", "に", "を", "は", "の", "が", "と", "た", "し", "で",
	"ない", "も", "な", "い", "か", "ので", "よう", "あり",
	"ホテル", "利用",
}

// Options configures Analyze.
type Options struct {
	// Top is how many terms to report; 0 reports all.
	Top int
	// Clusters is the number of review clusters; 0 skips clustering.
	Clusters int
	// StopWords replaces DefaultStopWords when non-nil.
	StopWords []string
}

type TermCount struct {
	Term  string
	Count int
}

type Cluster struct {
	ID       int
	Size     int
	TopTerms []string
	// Titles of the member reviews, in input order.
	Titles []string
}

// Report is the result of Analyze.
type Report struct {
	Reviews  int
	Terms    []TermCount
	Clusters []Cluster
}

// Analyze tokenizes the title and body of every review, counts the terms
// left after stop word removal, and groups the reviews by TF-IDF similarity.
func Analyze(tok Tokenizer, reviews []types.Review, opts Options) *Report {
	stopList := opts.StopWords
	if stopList == nil {
		stopList = DefaultStopWords
	}
	stop := make(map[string]bool, len(stopList))
	for _, w := range stopList {
		stop[w] = true
	}

	docs := make([][]string, len(reviews))
	for i, r := range reviews {
		for _, term := range tok.Terms(r.Title + " " + r.Body) {
			term = strings.TrimSpace(term)
			if term == "" || stop[term] {
				continue
			}
			docs[i] = append(docs[i], term)
		}
	}

	report := &Report{
		Reviews: len(reviews),
		Terms:   countTerms(docs, opts.Top),
	}
	if opts.Clusters > 0 && len(reviews) > 0 {
		report.Clusters = cluster(docs, reviews, opts.Clusters)
	}
	return report
}

// countTerms returns the n most frequent terms, ties broken alphabetically.
func countTerms(docs [][]string, n int) []TermCount {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, term := range doc {
			counts[term]++
		}
	}

	terms := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		terms = append(terms, TermCount{Term: term, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})

	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
