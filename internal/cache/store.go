// Package cache persists reconciliation payloads with per-entry TTL,
// checksum-based corruption detection and a refresh audit log.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cshaw/projrecon/internal/domain"
	"github.com/cshaw/projrecon/internal/repository"

	"github.com/google/uuid"
)

const defaultTTL = 7 * 24 * time.Hour

// Store is the cache service. Entry lifecycle:
// absent → valid → (expired | corrupted) → absent; only Save transitions
// back to valid. Expiry is evaluated lazily at Load time.
type Store struct {
	entries repository.CacheRepository
	logs    repository.RefreshLogRepository
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default 7-day entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wires a cache store over the given repositories.
func NewStore(entries repository.CacheRepository, logs repository.RefreshLogRepository, opts ...Option) *Store {
	s := &Store{
		entries: entries,
		logs:    logs,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EntryID builds the cache entry id from type and date bucket: one entry
// per cache type per day, replaced on every successful run.
func EntryID(cacheType string, at time.Time) string {
	return fmt.Sprintf("%s_%s", cacheType, at.UTC().Format("2006-01-02"))
}

// Save serializes the payload and writes or replaces the entry for the
// current date bucket. Every write attempt, including failures, appends a
// refresh-log row. A storage failure is reported to the caller but never
// crashes the pipeline; the in-memory result stays usable.
func (s *Store) Save(ctx context.Context, cacheType string, payload any, sourceFiles []string) error {
	now := s.now()

	data, err := json.Marshal(payload)
	if err != nil {
		s.appendLog(ctx, cacheType, sourceFiles, 0, domain.RefreshStatusFailed, err)
		return fmt.Errorf("failed to serialize cache payload: %w", err)
	}

	rowCount := countRows(data)
	entry := domain.CacheEntry{
		ID:          EntryID(cacheType, now),
		Type:        cacheType,
		Payload:     data,
		Checksum:    checksum(data),
		RowCount:    rowCount,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		SourceFiles: sourceFiles,
	}

	if err := s.entries.Upsert(ctx, entry); err != nil {
		s.appendLog(ctx, cacheType, sourceFiles, rowCount, domain.RefreshStatusFailed, err)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	s.appendLog(ctx, cacheType, sourceFiles, rowCount, domain.RefreshStatusSuccess, nil)
	log.Printf("[CACHE] saved %s (%d rows, %d bytes)", entry.ID, rowCount, len(data))
	return nil
}

// Load unmarshals the newest non-expired entry for the cache type into out.
// It returns false when no usable entry exists. A corrupted entry (checksum
// mismatch or undecodable payload) is deleted and reported as absent; the
// caller recomputes from source.
func (s *Store) Load(ctx context.Context, cacheType string, out any) (bool, error) {
	entry, found, err := s.entries.GetLatest(ctx, cacheType)
	if err != nil {
		return false, err
	}
	if !found || entry.Expired(s.now()) {
		return false, nil
	}

	if checksum(entry.Payload) != entry.Checksum {
		log.Printf("[CACHE] checksum mismatch on %s, deleting", entry.ID)
		s.deleteCorrupted(ctx, entry.ID)
		return false, nil
	}
	if err := json.Unmarshal(entry.Payload, out); err != nil {
		log.Printf("[CACHE] undecodable payload on %s, deleting: %v", entry.ID, err)
		s.deleteCorrupted(ctx, entry.ID)
		return false, nil
	}

	return true, nil
}

// Invalidate deletes entries of the given type, or every entry when the
// type is empty.
func (s *Store) Invalidate(ctx context.Context, cacheType string) error {
	var (
		deleted int64
		err     error
	)
	if cacheType == "" {
		deleted, err = s.entries.DeleteAll(ctx)
	} else {
		deleted, err = s.entries.DeleteByType(ctx, cacheType)
	}
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	log.Printf("[CACHE] invalidated %d entries (type=%q)", deleted, cacheType)
	return nil
}

// Info returns the diagnostics summary for a cache type.
func (s *Store) Info(ctx context.Context, cacheType string) (domain.CacheInfo, error) {
	info := domain.CacheInfo{}

	size, err := s.entries.SizeBytes(ctx, cacheType)
	if err != nil {
		return info, err
	}
	info.CacheSize = size

	entry, found, err := s.entries.GetLatest(ctx, cacheType)
	if err != nil {
		return info, err
	}
	if !found {
		info.IsExpired = true
		return info, nil
	}

	updated := entry.UpdatedAt
	expires := entry.ExpiresAt
	info.LastRefresh = &updated
	info.NextRefreshDue = &expires
	info.IsExpired = entry.Expired(s.now())
	return info, nil
}

// History lists recent refresh-log rows for the cache type.
func (s *Store) History(ctx context.Context, cacheType string, limit int) ([]domain.RefreshLogEntry, error) {
	return s.logs.List(ctx, cacheType, limit)
}

func (s *Store) deleteCorrupted(ctx context.Context, id string) {
	if err := s.entries.Delete(ctx, id); err != nil {
		log.Printf("[CACHE] failed to delete corrupted entry %s: %v", id, err)
	}
}

func (s *Store) appendLog(ctx context.Context, cacheType string, sourceFiles []string, rowCount int, status string, cause error) {
	entry := domain.RefreshLogEntry{
		ID:          uuid.New(),
		Type:        cacheType,
		RefreshedAt: s.now(),
		SourceFiles: sourceFiles,
		RowCount:    rowCount,
		Status:      status,
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		log.Printf("[CACHE] failed to append refresh log for %s: %v", cacheType, err)
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// countRows derives the audited row count from the serialized payload:
// the array length for list payloads, the "rows" length for table-shaped
// payloads, the "projects" size for reconciliation results.
func countRows(data []byte) int {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return 0
	}
	switch v := decoded.(type) {
	case []any:
		return len(v)
	case map[string]any:
		if rows, ok := v["rows"].([]any); ok {
			return len(rows)
		}
		if projects, ok := v["projects"].(map[string]any); ok {
			return len(projects)
		}
	}
	return 0
}
