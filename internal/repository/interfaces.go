package repository

import (
	"context"

	"github.com/cshaw/projrecon/internal/domain"
)

// CacheRepository persists reconciliation payloads keyed by cache id.
// Writes are insert-or-replace so readers never observe a partial payload.
type CacheRepository interface {
	Upsert(ctx context.Context, entry domain.CacheEntry) error
	GetLatest(ctx context.Context, cacheType string) (domain.CacheEntry, bool, error)
	Delete(ctx context.Context, id string) error
	DeleteByType(ctx context.Context, cacheType string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	SizeBytes(ctx context.Context, cacheType string) (int64, error)
}

// RefreshLogRepository appends and lists cache refresh audit rows.
type RefreshLogRepository interface {
	Record(ctx context.Context, entry domain.RefreshLogEntry) error
	List(ctx context.Context, cacheType string, limit int) ([]domain.RefreshLogEntry, error)
}
