package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSnapshots is returned when a yado has no saved page snapshots.
var ErrNoSnapshots = errors.New("no page snapshots")

// snapshotRoot returns the directory holding every snapshot set of a yado.
func snapshotRoot(cacheDir, yadoNo string) string {
	return filepath.Join(cacheDir, "pages", yadoNo)
}

// partialSuffix marks a snapshot set whose scrape has not finished.
const partialSuffix = ".partial"

// Snapshots writes the pages of one scrape into a timestamped directory.
// Pages go to a partial directory until Commit; LatestSnapshots ignores
// partial sets.
type Snapshots struct {
	dir       string
	committed bool
}

// NewSnapshots creates the snapshot directory for a scrape starting at now.
func NewSnapshots(cacheDir, yadoNo string, now time.Time) (*Snapshots, error) {
	// dashes instead of colons for filesystem compatibility
	dir := filepath.Join(snapshotRoot(cacheDir, yadoNo), now.Format("2006-01-02T15-04-05.000"))
	if err := os.MkdirAll(dir+partialSuffix, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return &Snapshots{dir: dir}, nil
}

// Dir returns the directory of the set once committed.
func (s *Snapshots) Dir() string {
	return s.dir
}

func (s *Snapshots) writeDir() string {
	if s.committed {
		return s.dir
	}
	return s.dir + partialSuffix
}

// Commit publishes the set so reparse can find it.
func (s *Snapshots) Commit() error {
	if s.committed {
		return nil
	}
	if err := os.Rename(s.dir+partialSuffix, s.dir); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	s.committed = true
	return nil
}

// Discard removes an uncommitted set. It is a no-op after Commit.
func (s *Snapshots) Discard() error {
	if s.committed {
		return nil
	}
	return os.RemoveAll(s.dir + partialSuffix)
}

// Save writes the HTML of page n. Returns the path to the saved file.
func (s *Snapshots) Save(n int, html string) (string, error) {
	path := filepath.Join(s.writeDir(), fmt.Sprintf("page-%03d.html", n))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// LatestSnapshots returns the page files of the most recent snapshot set of
// a yado in page order, along with the set's directory.
func LatestSnapshots(cacheDir, yadoNo string) ([]string, string, error) {
	root := snapshotRoot(cacheDir, yadoNo)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w for yado %s", ErrNoSnapshots, yadoNo)
		}
		return nil, "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var latest string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasSuffix(entry.Name(), partialSuffix) {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("%w for yado %s", ErrNoSnapshots, yadoNo)
	}

	dir := filepath.Join(root, latest)
	pages, err := filepath.Glob(filepath.Join(dir, "page-*.html"))
	if err != nil {
		return nil, "", err
	}
	if len(pages) == 0 {
		return nil, "", fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pageNumber(pages[i]) < pageNumber(pages[j])
	})

	return pages, dir, nil
}

func pageNumber(path string) int {
	var n int
	name := strings.TrimSuffix(filepath.Base(path), ".html")
	fmt.Sscanf(name, "page-%d", &n)
	return n
}
