package store

import (
	"time"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// Run represents one completed scrape of a yado
type Run struct {
	ID          int64     `json:"id"`
	YadoNo      string    `json:"yado_no"`
	Pages       int       `json:"pages"`
	ReviewCount int       `json:"review_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// StoredReview is a review together with the run and position it came from
type StoredReview struct {
	RunID    int64 `json:"run_id"`
	Position int   `json:"position"`
	types.Review
}
