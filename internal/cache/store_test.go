package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/cshaw/projrecon/internal/domain"
)

type stubCacheRepo struct {
	entries    map[string]domain.CacheEntry
	upsertErr  error
	getErr     error
	deletedIDs []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: make(map[string]domain.CacheEntry)}
}

func (r *stubCacheRepo) Upsert(ctx context.Context, entry domain.CacheEntry) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *stubCacheRepo) GetLatest(ctx context.Context, cacheType string) (domain.CacheEntry, bool, error) {
	if r.getErr != nil {
		return domain.CacheEntry{}, false, r.getErr
	}
	var (
		latest domain.CacheEntry
		found  bool
	)
	for _, entry := range r.entries {
		if entry.Type != cacheType {
			continue
		}
		if !found || entry.UpdatedAt.After(latest.UpdatedAt) {
			latest = entry
			found = true
		}
	}
	return latest, found, nil
}

func (r *stubCacheRepo) Delete(ctx context.Context, id string) error {
	delete(r.entries, id)
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *stubCacheRepo) DeleteByType(ctx context.Context, cacheType string) (int64, error) {
	var deleted int64
	for id, entry := range r.entries {
		if entry.Type == cacheType {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *stubCacheRepo) DeleteAll(ctx context.Context) (int64, error) {
	deleted := int64(len(r.entries))
	r.entries = make(map[string]domain.CacheEntry)
	return deleted, nil
}

func (r *stubCacheRepo) SizeBytes(ctx context.Context, cacheType string) (int64, error) {
	var size int64
	for _, entry := range r.entries {
		if cacheType == "" || entry.Type == cacheType {
			size += int64(len(entry.Payload))
		}
	}
	return size, nil
}

type stubRefreshLogRepo struct {
	recorded []domain.RefreshLogEntry
}

func (r *stubRefreshLogRepo) Record(ctx context.Context, entry domain.RefreshLogEntry) error {
	r.recorded = append(r.recorded, entry)
	return nil
}

func (r *stubRefreshLogRepo) List(ctx context.Context, cacheType string, limit int) ([]domain.RefreshLogEntry, error) {
	var out []domain.RefreshLogEntry
	for _, entry := range r.recorded {
		if cacheType == "" || entry.Type == cacheType {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RefreshedAt.After(out[j].RefreshedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type tablePayload struct {
	Rows []string `json:"rows"`
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	in := tablePayload{Rows: []string{"a", "b", "c"}}
	if err := store.Save(context.Background(), "pipeline_data", in, []string{"PT.xlsx"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	entry, ok := repo.entries["pipeline_data_2026-03-10"]
	if !ok {
		t.Fatalf("expected entry keyed by type and date bucket, have %v", repo.entries)
	}
	if entry.RowCount != 3 {
		t.Errorf("expected row count 3, got %d", entry.RowCount)
	}
	if got, want := entry.ExpiresAt, now.Add(7*24*time.Hour); !got.Equal(want) {
		t.Errorf("expected default 7-day expiry %v, got %v", want, got)
	}

	var out tablePayload
	found, err := store.Load(context.Background(), "pipeline_data", &out)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !found {
		t.Fatal("expected freshly saved entry to load")
	}
	if len(out.Rows) != 3 || out.Rows[2] != "c" {
		t.Errorf("payload did not round trip: %v", out.Rows)
	}
}

func TestStoreSaveReplacesSameDayEntry(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	ctx := context.Background()
	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a"}}, nil); err != nil {
		t.Fatalf("first Save returned error: %v", err)
	}
	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a", "b"}}, nil); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected same-day runs to share one entry, got %d", len(repo.entries))
	}
	var out tablePayload
	if found, _ := store.Load(ctx, "pipeline_data", &out); !found {
		t.Fatal("expected replaced entry to load")
	}
	if len(out.Rows) != 2 {
		t.Errorf("expected latest payload to win, got %v", out.Rows)
	}
}

func TestStoreLoadExpiredEntry(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithTTL(time.Hour), WithClock(func() time.Time { return current }))

	ctx := context.Background()
	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	var out tablePayload
	if found, _ := store.Load(ctx, "pipeline_data", &out); !found {
		t.Fatal("expected fresh entry to load before the TTL elapses")
	}

	current = current.Add(2 * time.Hour)
	found, err := store.Load(ctx, "pipeline_data", &out)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if found {
		t.Error("expected expired entry to be treated as absent")
	}
}

func TestStoreLoadDeletesCorruptedEntry(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	ctx := context.Background()
	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	id := EntryID("pipeline_data", now)
	entry := repo.entries[id]
	entry.Payload = append([]byte(nil), entry.Payload...)
	entry.Payload[0] ^= 0xff
	repo.entries[id] = entry

	var out tablePayload
	found, err := store.Load(ctx, "pipeline_data", &out)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if found {
		t.Error("expected corrupted entry to be reported absent")
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != id {
		t.Errorf("expected corrupted entry %s to be deleted, deletions: %v", id, repo.deletedIDs)
	}
	if _, stillThere := repo.entries[id]; stillThere {
		t.Error("expected corrupted entry removed from storage")
	}
}

func TestStoreSaveFailureIsLogged(t *testing.T) {
	repo := newStubCacheRepo()
	repo.upsertErr = errors.New("disk full")
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	err := store.Save(context.Background(), "pipeline_data", tablePayload{Rows: []string{"a"}}, []string{"PT.xlsx"})
	if err == nil {
		t.Fatal("expected Save to surface the storage error")
	}

	if len(logs.recorded) != 1 {
		t.Fatalf("expected one refresh-log row, got %d", len(logs.recorded))
	}
	row := logs.recorded[0]
	if row.Status != domain.RefreshStatusFailed {
		t.Errorf("expected status %q, got %q", domain.RefreshStatusFailed, row.Status)
	}
	if row.ErrorMessage == "" {
		t.Error("expected failure row to carry the error message")
	}
	if len(row.SourceFiles) != 1 || row.SourceFiles[0] != "PT.xlsx" {
		t.Errorf("expected source files on failure row, got %v", row.SourceFiles)
	}
}

func TestStoreSaveSuccessIsLogged(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	if err := store.Save(context.Background(), "pipeline_data", tablePayload{Rows: []string{"a", "b"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	history, err := store.History(context.Background(), "pipeline_data", 10)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one audit row, got %d", len(history))
	}
	if history[0].Status != domain.RefreshStatusSuccess {
		t.Errorf("expected status %q, got %q", domain.RefreshStatusSuccess, history[0].Status)
	}
	if history[0].RowCount != 2 {
		t.Errorf("expected row count 2 on audit row, got %d", history[0].RowCount)
	}
}

func TestStoreInvalidate(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	ctx := context.Background()
	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Save(ctx, "estimate_data", tablePayload{Rows: []string{"b"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := store.Invalidate(ctx, "pipeline_data"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	var out tablePayload
	if found, _ := store.Load(ctx, "pipeline_data", &out); found {
		t.Error("expected invalidated type to be gone")
	}
	if found, _ := store.Load(ctx, "estimate_data", &out); !found {
		t.Error("expected other cache type to survive a targeted invalidation")
	}

	if err := store.Invalidate(ctx, ""); err != nil {
		t.Fatalf("Invalidate all returned error: %v", err)
	}
	if len(repo.entries) != 0 {
		t.Errorf("expected empty storage after invalidating all, got %d entries", len(repo.entries))
	}
}

func TestStoreInfo(t *testing.T) {
	repo := newStubCacheRepo()
	logs := &stubRefreshLogRepo{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := NewStore(repo, logs, WithClock(fixedClock(now)))

	ctx := context.Background()

	info, err := store.Info(ctx, "pipeline_data")
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if !info.IsExpired {
		t.Error("expected an empty cache to report expired")
	}
	if info.LastRefresh != nil {
		t.Error("expected no last refresh on an empty cache")
	}

	if err := store.Save(ctx, "pipeline_data", tablePayload{Rows: []string{"a"}}, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	info, err = store.Info(ctx, "pipeline_data")
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if info.IsExpired {
		t.Error("expected fresh entry to report not expired")
	}
	if info.LastRefresh == nil || !info.LastRefresh.Equal(now) {
		t.Errorf("expected last refresh %v, got %v", now, info.LastRefresh)
	}
	if info.NextRefreshDue == nil || !info.NextRefreshDue.Equal(now.Add(7*24*time.Hour)) {
		t.Errorf("unexpected next refresh due: %v", info.NextRefreshDue)
	}
	if info.CacheSize <= 0 {
		t.Errorf("expected positive cache size, got %d", info.CacheSize)
	}
}

func TestEntryIDUsesUTCDateBucket(t *testing.T) {
	at := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	if got, want := EntryID("pipeline_data", at), "pipeline_data_2026-03-10"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCountRowsShapes(t *testing.T) {
	cases := []struct {
		name string
		json string
		want int
	}{
		{"array", `[1,2,3]`, 3},
		{"rows object", `{"rows":[1,2]}`, 2},
		{"projects object", `{"projects":{"P1":{},"P2":{}}}`, 2},
		{"other object", `{"x":1}`, 0},
		{"scalar", `42`, 0},
	}
	for _, tc := range cases {
		if got := countRows([]byte(tc.json)); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
