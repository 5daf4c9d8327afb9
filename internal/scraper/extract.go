package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// ErrMissingElement is returned when a review card lacks a required element.
var ErrMissingElement = errors.New("required element not found")

// ExtractFunc turns one page snapshot into the reviews it contains.
type ExtractFunc func(html string) ([]types.Review, error)

// ExtractReviews parses a listing page snapshot and returns one review per
// review card, in page order.
func ExtractReviews(html string) ([]types.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	cards := doc.Find(ReviewCard)
	reviews := make([]types.Review, 0, cards.Length())

	var extractErr error
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		r, err := extractCard(card)
		if err != nil {
			extractErr = fmt.Errorf("review card %d: %w", i+1, err)
			return false
		}
		reviews = append(reviews, r)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return reviews, nil
}

func extractCard(card *goquery.Selection) (types.Review, error) {
	reviewer, err := requireOne(card.Find(ReviewerName), ReviewerName)
	if err != nil {
		return types.Review{}, err
	}
	date, err := requireOne(card.Find(PostDate), PostDate)
	if err != nil {
		return types.Review{}, err
	}
	comment, err := requireOne(card.ChildrenFiltered(CommentText), CommentText)
	if err != nil {
		return types.Review{}, err
	}

	sex, age := ParseReviewer(renderedText(reviewer))
	title, body := ParseComment(renderedText(comment))

	scores := []string{}
	card.ChildrenFiltered(RateBlock).ChildrenFiltered(ScoreList).ChildrenFiltered(ScoreValue).Each(func(_ int, dd *goquery.Selection) {
		scores = append(scores, renderedText(dd))
	})

	return types.Review{
		Sex:    sex,
		Age:    age,
		Date:   ParsePostDate(renderedText(date)),
		Title:  title,
		Body:   body,
		Scores: scores,
	}, nil
}

func requireOne(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, selector)
	}
	return sel.First(), nil
}
