package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/kuchikomi/internal/config"
	"github.com/ibeckermayer/kuchikomi/internal/mining"
	"github.com/ibeckermayer/kuchikomi/internal/scraper"
	"github.com/ibeckermayer/kuchikomi/internal/store"
)

func reviewPage(title string, scores ...string) string {
	rate := ""
	for _, s := range scores {
		rate += "<dd>" + s + "</dd>"
	}
	return fmt.Sprintf(`<html><body>
<div class="user-kuchikomi">
  <p class="user-name">ゲストさん 女性 / 40代</p>
  <p class="post-date">投稿日：2020/10/01</p>
  <p class="text">%s<br>line one<br>line two</p>
  <div class="rate"><dl>%s</dl></div>
</div></body></html>`, title, rate)
}

type fakePage struct {
	pages   []string
	current int
	failAt  int // 1-based page whose wait fails; 0 never
}

func (p *fakePage) WaitReviews(ctx context.Context) error {
	if p.failAt == p.current+1 {
		return context.DeadlineExceeded
	}
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.pages[p.current], nil }

func (p *fakePage) HasNext(ctx context.Context) (bool, error) {
	return p.current < len(p.pages)-1, nil
}

func (p *fakePage) Next(ctx context.Context) (string, error) {
	p.current++
	return fmt.Sprint(p.current + 1), nil
}

type fakeSession struct {
	ctx    context.Context
	page   *fakePage
	closed int
}

func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) Page() scraper.Page { return s.page }
func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeLauncher struct {
	sessions map[string]*fakeSession
	// queue, when set, serves one session per launch regardless of url
	queue []*fakeSession
	urls  []string
	err   error
}

func (l *fakeLauncher) Launch(ctx context.Context, url string) (Session, error) {
	l.urls = append(l.urls, url)
	if l.err != nil {
		return nil, l.err
	}
	if len(l.queue) > 0 {
		s := l.queue[0]
		l.queue = l.queue[1:]
		s.ctx = ctx
		return s, nil
	}
	s, ok := l.sessions[url]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	s.ctx = ctx
	return s, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Scraping.PageDelay = config.Duration{}
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.CacheDir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

const listing = "https://www.jalan.net/yad318128/kuchikomi/"

func TestScrapeWritesRowsAndClosesSession(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{page: &fakePage{pages: []string{reviewPage("A", "5", "4"), reviewPage("B", "3")}}}
	launcher := &fakeLauncher{sessions: map[string]*fakeSession{listing: sess}}

	st, err := store.New(filepath.Join(t.TempDir(), "k.db"))
	require.NoError(t, err)
	defer st.Close()

	a := New(cfg, launcher, st, zerolog.Nop())
	res, err := a.Scrape(context.Background(), "318128")
	require.NoError(t, err)

	require.Equal(t, []string{listing}, launcher.urls)
	require.Equal(t, 1, sess.closed)
	require.Equal(t, 2, res.Pages)
	require.Len(t, res.Reviews, 2)
	require.Equal(t, filepath.Join(cfg.Output.Dir, "kuchikomi_318128.csv"), res.OutputPath)
	require.NotZero(t, res.RunID)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t,
		"女性,40代,2020/10/01,A,line one line two,5,4\n"+
			"女性,40代,2020/10/01,B,line one line two,3\n",
		string(data))

	runs, err := a.Runs("318128", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 2, runs[0].ReviewCount)
}

func TestScrapeFailureClosesSessionAndWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{page: &fakePage{pages: []string{reviewPage("A"), reviewPage("B")}, failAt: 2}}
	a := New(cfg, &fakeLauncher{sessions: map[string]*fakeSession{listing: sess}}, nil, zerolog.Nop())

	res, err := a.Scrape(context.Background(), "318128")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Nil(t, res)
	require.Equal(t, 1, sess.closed)

	_, err = os.Stat(a.OutputPath("318128"))
	require.True(t, os.IsNotExist(err))
}

func TestScrapeLaunchFailure(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("chrome not found")
	a := New(cfg, &fakeLauncher{err: boom}, nil, zerolog.Nop())

	_, err := a.Scrape(context.Background(), "318128")
	require.ErrorIs(t, err, boom)
}

func TestSnapshotsAndReparse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scraping.KeepSnapshots = true
	cfg.Output.Delimiter = "\t"
	sess := &fakeSession{page: &fakePage{pages: []string{reviewPage("A", "5"), reviewPage("B", "4"), reviewPage("C", "3")}}}
	a := New(cfg, &fakeLauncher{sessions: map[string]*fakeSession{listing: sess}}, nil, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC) }

	res, err := a.Scrape(context.Background(), "318128")
	require.NoError(t, err)
	require.NotEmpty(t, res.SnapshotDir)

	scraped, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.NoError(t, os.Remove(res.OutputPath))

	reparsed, err := a.Reparse(context.Background(), "318128")
	require.NoError(t, err)
	require.Equal(t, 3, reparsed.Pages)
	require.Equal(t, res.SnapshotDir, reparsed.SnapshotDir)

	again, err := os.ReadFile(reparsed.OutputPath)
	require.NoError(t, err)
	require.Equal(t, string(scraped), string(again))
}

func TestFailedScrapesKeepLastCompleteSnapshots(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scraping.KeepSnapshots = true
	launcher := &fakeLauncher{queue: []*fakeSession{
		{page: &fakePage{pages: []string{reviewPage("A"), reviewPage("B"), reviewPage("C")}}},
		{page: &fakePage{pages: []string{reviewPage("X"), reviewPage("Y")}, failAt: 2}},
	}}
	a := New(cfg, launcher, nil, zerolog.Nop())

	day := 1
	a.now = func() time.Time { return time.Date(2024, 5, day, 6, 0, 0, 0, time.UTC) }

	res, err := a.Scrape(context.Background(), "318128")
	require.NoError(t, err)
	complete, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)

	// fails on page 2 after page 1 was snapshotted
	day = 2
	_, err = a.Scrape(context.Background(), "318128")
	require.Error(t, err)

	// fails before any page
	day = 3
	launcher.err = errors.New("chrome not found")
	_, err = a.Scrape(context.Background(), "318128")
	require.Error(t, err)

	reparsed, err := a.Reparse(context.Background(), "318128")
	require.NoError(t, err)
	require.Equal(t, res.SnapshotDir, reparsed.SnapshotDir)
	require.Equal(t, 3, reparsed.Pages)

	again, err := os.ReadFile(reparsed.OutputPath)
	require.NoError(t, err)
	require.Equal(t, string(complete), string(again))

	entries, err := os.ReadDir(filepath.Dir(res.SnapshotDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type splitTerms struct{}

func (splitTerms) Terms(text string) []string { return strings.Fields(text) }

func TestMineReadsOutputFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Header = true
	sess := &fakeSession{page: &fakePage{pages: []string{reviewPage("onsen"), reviewPage("buffet")}}}
	a := New(cfg, &fakeLauncher{sessions: map[string]*fakeSession{listing: sess}}, nil, zerolog.Nop())

	_, err := a.Scrape(context.Background(), "318128")
	require.NoError(t, err)

	report, err := a.Mine(context.Background(), "318128", splitTerms{}, mining.Options{Top: 1, Clusters: 2})
	require.NoError(t, err)
	require.Equal(t, 2, report.Reviews)
	// every body reads "line one line two"
	require.Equal(t, []mining.TermCount{{Term: "line", Count: 4}}, report.Terms)
	require.Len(t, report.Clusters, 2)
}

func TestMineWithoutOutput(t *testing.T) {
	a := New(testConfig(t), &fakeLauncher{}, nil, zerolog.Nop())
	_, err := a.Mine(context.Background(), "318128", splitTerms{}, mining.Options{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReparseWithoutSnapshots(t *testing.T) {
	a := New(testConfig(t), &fakeLauncher{}, nil, zerolog.Nop())
	_, err := a.Reparse(context.Background(), "318128")
	require.ErrorIs(t, err, store.ErrNoSnapshots)
}

func TestRunsWithoutStore(t *testing.T) {
	a := New(testConfig(t), &fakeLauncher{}, nil, zerolog.Nop())
	_, err := a.Runs("318128", 5)
	require.ErrorIs(t, err, ErrStoreDisabled)
}

func TestScrapeAllContinuesAfterFailure(t *testing.T) {
	cfg := testConfig(t)
	ok := &fakeSession{page: &fakePage{pages: []string{reviewPage("A")}}}
	launcher := &fakeLauncher{sessions: map[string]*fakeSession{
		"https://www.jalan.net/yad2/kuchikomi/": ok,
	}}
	a := New(cfg, launcher, nil, zerolog.Nop())

	err := a.ScrapeAll(context.Background(), []string{"1", "2"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "yado 1")
	require.Len(t, launcher.urls, 2)
	require.Equal(t, 1, ok.closed)

	_, err = os.Stat(a.OutputPath("2"))
	require.NoError(t, err)
}

func TestWatchRequiresYados(t *testing.T) {
	a := New(testConfig(t), &fakeLauncher{}, nil, zerolog.Nop())
	require.Error(t, a.Watch(context.Background()))
}

func TestWatchStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.YadoNos = []string{"318128"}
	a := New(cfg, &fakeLauncher{}, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
