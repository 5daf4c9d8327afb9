package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "kuchikomi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRunAndReadBack(t *testing.T) {
	s := newTestStore(t)

	started := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	reviews := []types.Review{
		{Sex: "女性", Age: "30代", Date: "2019/02/03", Title: "最高", Body: "きれい", Scores: []string{"5", "4"}},
		{Sex: "Male", Date: "2019/01/28", Title: "ok", Scores: []string{}},
	}

	runID, err := s.SaveRun("318128", 2, reviews, started, started.Add(time.Minute))
	require.NoError(t, err)
	require.NotZero(t, runID)

	runs, err := s.ListRuns("318128", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, runID, runs[0].ID)
	require.Equal(t, 2, runs[0].Pages)
	require.Equal(t, 2, runs[0].ReviewCount)
	require.True(t, runs[0].StartedAt.Equal(started))

	stored, err := s.RunReviews(runID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, 0, stored[0].Position)
	require.Equal(t, reviews[0], stored[0].Review)
	require.Equal(t, "ok", stored[1].Title)
	require.Empty(t, stored[1].Scores)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun("1", i+1, nil, base.Add(time.Duration(i)*time.Hour), base.Add(time.Duration(i)*time.Hour+time.Minute))
		require.NoError(t, err)
	}
	_, err := s.SaveRun("2", 9, nil, base, base)
	require.NoError(t, err)

	runs, err := s.ListRuns("1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, 3, runs[0].Pages)
	require.Equal(t, 2, runs[1].Pages)
}

func TestSnapshotsLatestSet(t *testing.T) {
	cache := t.TempDir()

	older, err := NewSnapshots(cache, "318128", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = older.Save(1, "old")
	require.NoError(t, err)
	require.NoError(t, older.Commit())

	newer, err := NewSnapshots(cache, "318128", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, n := range []int{2, 10, 1} {
		_, err := newer.Save(n, "new")
		require.NoError(t, err)
	}
	require.NoError(t, newer.Commit())

	pages, dir, err := LatestSnapshots(cache, "318128")
	require.NoError(t, err)
	require.Equal(t, newer.Dir(), dir)
	require.Len(t, pages, 3)
	require.Equal(t, "page-001.html", filepath.Base(pages[0]))
	require.Equal(t, "page-002.html", filepath.Base(pages[1]))
	require.Equal(t, "page-010.html", filepath.Base(pages[2]))

	data, err := os.ReadFile(pages[0])
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestLatestSnapshotsMissing(t *testing.T) {
	_, _, err := LatestSnapshots(t.TempDir(), "404")
	require.ErrorIs(t, err, ErrNoSnapshots)
}

func TestLatestSnapshotsSkipsUnfinishedSets(t *testing.T) {
	cache := t.TempDir()

	done, err := NewSnapshots(cache, "318128", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = done.Save(1, "complete")
	require.NoError(t, err)
	require.NoError(t, done.Commit())

	// a later scrape that never finished
	aborted, err := NewSnapshots(cache, "318128", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = aborted.Save(1, "partial")
	require.NoError(t, err)

	pages, dir, err := LatestSnapshots(cache, "318128")
	require.NoError(t, err)
	require.Equal(t, done.Dir(), dir)
	require.Len(t, pages, 1)

	require.NoError(t, aborted.Discard())
	entries, err := os.ReadDir(filepath.Join(cache, "pages", "318128"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLatestSnapshotsOnlyUnfinished(t *testing.T) {
	cache := t.TempDir()
	s, err := NewSnapshots(cache, "318128", time.Now())
	require.NoError(t, err)
	_, err = s.Save(1, "partial")
	require.NoError(t, err)

	_, _, err = LatestSnapshots(cache, "318128")
	require.ErrorIs(t, err, ErrNoSnapshots)
}
