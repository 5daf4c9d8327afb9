package scraper

import (
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestExtractReviewsFromFixture(t *testing.T) {
	reviews, err := ExtractReviews(loadFixture(t, "kuchikomi_page.html"))
	require.NoError(t, err)

	require.Equal(t, []types.Review{
		{
			Sex:    "女性",
			Age:    "30代",
			Date:   "2019/02/03",
			Title:  "最高の宿でした",
			Body:   "部屋がとてもきれいでした スタッフも親切でした",
			Scores: []string{"5", "4", "5"},
		},
		{
			Sex:    "Male",
			Age:    "",
			Date:   "2019/01/28",
			Title:  "Good value",
			Body:   "",
			Scores: []string{"3"},
		},
		{
			Sex:    "男性",
			Age:    "",
			Date:   "2019/01/01",
			Title:  "Quiet",
			Body:   "Would return soon",
			Scores: []string{},
		},
	}, reviews)
}

func TestExtractReviewsNoCards(t *testing.T) {
	reviews, err := ExtractReviews("<html><body><p>no reviews</p></body></html>")
	require.NoError(t, err)
	require.Empty(t, reviews)
}

func TestExtractReviewsMissingComment(t *testing.T) {
	// the comment must be a direct child of the card
	html := `<div class="user-kuchikomi">
		<p class="user-name">Female / 20s</p>
		<p class="post-date">投稿日：2020/05/05</p>
		<div><p class="text">nested</p></div>
	</div>`

	_, err := ExtractReviews(html)
	require.ErrorIs(t, err, ErrMissingElement)
	require.Contains(t, err.Error(), "review card 1")
}

func TestExtractReviewsExactClassMatch(t *testing.T) {
	html := `<div class="user-kuchikomi">
		<p class="user-name extra">Female / 20s</p>
		<p class="post-date">投稿日：2020/05/05</p>
		<p class="text">t</p>
	</div>`

	_, err := ExtractReviews(html)
	require.ErrorIs(t, err, ErrMissingElement)
}

func TestRenderedText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<div id=\"x\">\n  one\n  two<br>three <b>bold</b><p>para</p><script>ignored()</script></div>"))
	require.NoError(t, err)

	require.Equal(t, "one two\nthree bold\npara", renderedText(doc.Find("#x")))
}
