package domain

import (
	"time"

	"github.com/google/uuid"
)

// Refresh outcomes recorded in the audit log.
const (
	RefreshStatusSuccess = "success"
	RefreshStatusFailed  = "failed"
)

// CacheEntry is one persisted reconciliation payload. The ID is the cache
// type plus the date bucket of the run, so each day's run replaces its own
// entry.
type CacheEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Payload     []byte    `json:"payload"`
	Checksum    string    `json:"checksum"`
	RowCount    int       `json:"rowCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	SourceFiles []string  `json:"sourceFiles"`
}

// Expired reports whether the entry has passed its TTL at the given instant.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// RefreshLogEntry captures one cache write attempt, success or failure.
type RefreshLogEntry struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	RefreshedAt  time.Time `json:"refreshedAt"`
	SourceFiles  []string  `json:"sourceFiles"`
	RowCount     int       `json:"rowCount"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// CacheInfo is the read-only diagnostics summary for a cache type.
type CacheInfo struct {
	LastRefresh    *time.Time `json:"lastRefresh"`
	CacheSize      int64      `json:"cacheSize"`
	IsExpired      bool       `json:"isExpired"`
	NextRefreshDue *time.Time `json:"nextRefreshDue"`
}
