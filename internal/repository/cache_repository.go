package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cshaw/projrecon/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cacheRepository struct {
	pool *pgxpool.Pool
}

// NewCacheRepository wires a cache repository backed by pgxpool.
func NewCacheRepository(pool *pgxpool.Pool) CacheRepository {
	return &cacheRepository{pool: pool}
}

func (r *cacheRepository) Upsert(ctx context.Context, entry domain.CacheEntry) error {
	if r.pool == nil {
		return fmt.Errorf("cache repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO cache_entry (id, type, payload, checksum, row_count, created_at, updated_at, expires_at, source_files)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   checksum = EXCLUDED.checksum,
		   row_count = EXCLUDED.row_count,
		   updated_at = EXCLUDED.updated_at,
		   expires_at = EXCLUDED.expires_at,
		   source_files = EXCLUDED.source_files`,
		entry.ID,
		entry.Type,
		entry.Payload,
		entry.Checksum,
		entry.RowCount,
		entry.CreatedAt,
		entry.UpdatedAt,
		entry.ExpiresAt,
		entry.SourceFiles,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry %s: %w", entry.ID, err)
	}
	return nil
}

func (r *cacheRepository) GetLatest(ctx context.Context, cacheType string) (domain.CacheEntry, bool, error) {
	if r.pool == nil {
		return domain.CacheEntry{}, false, fmt.Errorf("cache repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT id, type, payload, checksum, row_count, created_at, updated_at, expires_at, source_files
		 FROM cache_entry
		 WHERE type = $1
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		cacheType,
	)

	var (
		entry     domain.CacheEntry
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		expiresAt pgtype.Timestamptz
	)
	err := row.Scan(
		&entry.ID,
		&entry.Type,
		&entry.Payload,
		&entry.Checksum,
		&entry.RowCount,
		&createdAt,
		&updatedAt,
		&expiresAt,
		&entry.SourceFiles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, fmt.Errorf("failed to load cache entry for %s: %w", cacheType, err)
	}

	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}
	if expiresAt.Valid {
		entry.ExpiresAt = expiresAt.Time
	}

	return entry, true, nil
}

func (r *cacheRepository) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("cache repository not initialized")
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM cache_entry WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", id, err)
	}
	return nil
}

func (r *cacheRepository) DeleteByType(ctx context.Context, cacheType string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("cache repository not initialized")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM cache_entry WHERE type = $1`, cacheType)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries for %s: %w", cacheType, err)
	}
	return tag.RowsAffected(), nil
}

func (r *cacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("cache repository not initialized")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM cache_entry`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *cacheRepository) SizeBytes(ctx context.Context, cacheType string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("cache repository not initialized")
	}
	var size pgtype.Int8
	err := r.pool.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(length(payload)), 0) FROM cache_entry WHERE type = $1 OR $1 = ''`,
		cacheType,
	).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("failed to measure cache size: %w", err)
	}
	return size.Int64, nil
}
