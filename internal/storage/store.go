// Package storage holds the last successful fetch per user session so the
// export and raw-viewer endpoints can reuse it without refetching.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/analytics-ceew/agri-google/internal/models"
)

// Snapshot is everything retained from one successful monitoring fetch. It is
// written wholesale on success and never mutated in place; a failed fetch
// leaves the previous snapshot untouched.
type Snapshot struct {
	CellID      string                    `json:"cell_id"`
	RawResponse json.RawMessage           `json:"raw_response"`
	Collection  *models.FeatureCollection `json:"collection"`
	Period      *models.TimePeriod        `json:"period,omitempty"`
	FetchedAt   time.Time                 `json:"fetched_at"`
}

type Store interface {
	Put(ctx context.Context, sessionID string, snapshot Snapshot) error
	Get(ctx context.Context, sessionID string) (Snapshot, bool, error)
}
