package repository

import (
	"context"
	"fmt"

	"github.com/cshaw/projrecon/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type refreshLogRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshLogRepository wires a refresh-log repository backed by pgxpool.
func NewRefreshLogRepository(pool *pgxpool.Pool) RefreshLogRepository {
	return &refreshLogRepository{pool: pool}
}

func (r *refreshLogRepository) Record(ctx context.Context, entry domain.RefreshLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("refresh log repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO refresh_log (id, type, refreshed_at, source_files, row_count, status, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		entry.Type,
		entry.RefreshedAt,
		entry.SourceFiles,
		entry.RowCount,
		entry.Status,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record refresh log: %w", err)
	}
	return nil
}

func (r *refreshLogRepository) List(ctx context.Context, cacheType string, limit int) ([]domain.RefreshLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("refresh log repository not initialized")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, type, refreshed_at, source_files, row_count, status, error_message
		 FROM refresh_log
		 WHERE type = $1 OR $1 = ''
		 ORDER BY refreshed_at DESC
		 LIMIT $2`,
		cacheType,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.RefreshLogEntry{}
	for rows.Next() {
		var (
			entry       domain.RefreshLogEntry
			refreshedAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.Type,
			&refreshedAt,
			&entry.SourceFiles,
			&entry.RowCount,
			&entry.Status,
			&entry.ErrorMessage,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan refresh log: %w", scanErr)
		}
		if refreshedAt.Valid {
			entry.RefreshedAt = refreshedAt.Time
		}
		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate refresh logs: %w", rowsErr)
	}

	return logs, nil
}
