package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		yado_no TEXT NOT NULL,
		pages INTEGER NOT NULL,
		review_count INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		sex TEXT,
		age TEXT,
		post_date TEXT,
		title TEXT,
		body TEXT,
		scores TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_yado_no ON runs(yado_no, finished_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records a finished scrape and all of its reviews in one transaction.
// Returns the new run's ID.
func (s *Store) SaveRun(yadoNo string, pages int, reviews []types.Review, startedAt, finishedAt time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (yado_no, pages, review_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`, yadoNo, pages, len(reviews), startedAt.UTC(), finishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reviews (run_id, position, sex, age, post_date, title, body, scores)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range reviews {
		scoresJSON, err := json.Marshal(r.Scores)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.Exec(runID, i, r.Sex, r.Age, r.Date, r.Title, r.Body, string(scoresJSON)); err != nil {
			return 0, fmt.Errorf("failed to insert review %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs for a yado, newest first
func (s *Store) ListRuns(yadoNo string, limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, yado_no, pages, review_count, started_at, finished_at
		FROM runs
		WHERE yado_no = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, yadoNo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.YadoNo, &r.Pages, &r.ReviewCount, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunReviews returns the reviews of a run in their original order
func (s *Store) RunReviews(runID int64) ([]StoredReview, error) {
	rows, err := s.db.Query(`
		SELECT run_id, position, sex, age, post_date, title, body, scores
		FROM reviews
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []StoredReview
	for rows.Next() {
		var r StoredReview
		var scoresJSON string

		err := rows.Scan(&r.RunID, &r.Position, &r.Sex, &r.Age, &r.Date, &r.Title, &r.Body, &scoresJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scoresJSON), &r.Scores); err != nil {
			return nil, fmt.Errorf("review %d/%d: bad scores: %w", r.RunID, r.Position, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
