package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}

func TestSearchCacheRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSearchCacheRepository(db)
		if err := repo.Put(ctx, models.CacheEntry{Song: "A", VideoID: "v1"}); err != nil {
			t.Fatalf("failed to put entry: %v", err)
		}

		entry, found, err := repo.Get(ctx, "A")
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if !found {
			t.Fatal("expected entry to be found")
		}
		if entry.VideoID != "v1" || entry.NoMatch {
			t.Errorf("unexpected entry %+v", entry)
		}
		if entry.CreatedAt.IsZero() {
			t.Error("created_at should be set")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, found, err := NewSearchCacheRepository(db).Get(ctx, "nope")
		if err != nil || found {
			t.Errorf("Get() = %v, %v", found, err)
		}
	})

	t.Run("No match is cached", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSearchCacheRepository(db)
		if err := repo.Put(ctx, models.CacheEntry{Song: "B", NoMatch: true}); err != nil {
			t.Fatalf("failed to put entry: %v", err)
		}

		entry, found, _ := repo.Get(ctx, "B")
		if !found || !entry.NoMatch {
			t.Fatalf("expected no-match entry, got %+v", entry)
		}
		if r := entry.Resolution(); r.Status != models.NoMatch || !r.Cached {
			t.Errorf("unexpected resolution %+v", r)
		}
	})

	t.Run("First write wins", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSearchCacheRepository(db)
		repo.Put(ctx, models.CacheEntry{Song: "A", VideoID: "v1"})
		if err := repo.Put(ctx, models.CacheEntry{Song: "A", VideoID: "v2"}); err != nil {
			t.Fatalf("duplicate put should not fail: %v", err)
		}

		entry, _, _ := repo.Get(ctx, "A")
		if entry.VideoID != "v1" {
			t.Errorf("expected first result to be kept, got %s", entry.VideoID)
		}
	})

	t.Run("Rejects incomplete entries", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSearchCacheRepository(db)
		if err := repo.Put(ctx, models.CacheEntry{VideoID: "v1"}); err == nil {
			t.Error("expected error for empty song")
		}
		if err := repo.Put(ctx, models.CacheEntry{Song: "A"}); err == nil {
			t.Error("expected error for entry without a result")
		}
	})

	t.Run("List and Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSearchCacheRepository(db)
		repo.Put(ctx, models.CacheEntry{Song: "C", VideoID: "v3"})
		repo.Put(ctx, models.CacheEntry{Song: "A", VideoID: "v1"})
		repo.Put(ctx, models.CacheEntry{Song: "B", NoMatch: true})

		entries, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(entries) != 3 || entries[0].Song != "A" || entries[2].Song != "C" {
			t.Errorf("unexpected entries %+v", entries)
		}

		n, err := repo.Clear(ctx)
		if err != nil || n != 3 {
			t.Errorf("Clear() = %d, %v", n, err)
		}
		if entries, _ := repo.List(ctx); len(entries) != 0 {
			t.Errorf("expected empty cache, got %d entries", len(entries))
		}
	})

	t.Run("Closed database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewSearchCacheRepository(db)
		if _, _, err := repo.Get(ctx, "A"); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Put(ctx, models.CacheEntry{Song: "A", VideoID: "v"}); err == nil {
			t.Error("expected error from closed database")
		}
		if _, err := repo.List(ctx); err == nil {
			t.Error("expected error from closed database")
		}
	})
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	newRun := func(title string, offset time.Duration) *models.RunRecord {
		return &models.RunRecord{
			PlaylistID:    "PL1",
			PlaylistTitle: title,
			Summary:       models.RunSummary{Total: 4, Added: 1, AlreadyPresent: 1, NoMatchFound: 1, Failed: 1, QuotaExhausted: 1, Spent: 450},
			StartedAt:     start.Add(offset),
			FinishedAt:    start.Add(offset + time.Minute),
		}
	}

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newRun("Mix", 0)
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence)
		}
	})

	t.Run("Create keeps existing ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := newRun("Mix", 0)
		run.ID = "run-id"
		if err := NewRunRepository(db).Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID != "run-id" {
			t.Errorf("expected ID to be kept, got %s", run.ID)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if err := repo.Create(ctx, &models.RunRecord{}); err == nil {
			t.Error("expected error without playlist id")
		}

		run := newRun("Mix", 0)
		run.FinishedAt = run.StartedAt.Add(-time.Second)
		if err := repo.Create(ctx, run); err == nil {
			t.Error("expected error when finish precedes start")
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for i, title := range []string{"first", "second", "third"} {
			if err := repo.Create(ctx, newRun(title, time.Duration(i)*time.Hour)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].PlaylistTitle != "third" || runs[0].Sequence != 3 {
			t.Errorf("expected most recent run first, got %+v", runs[0])
		}

		s := runs[0].Summary
		if s.Total != 4 || s.Spent != 450 || s.QuotaExhausted != 1 || !s.Exhausted {
			t.Errorf("unexpected summary %+v", s)
		}
		if !runs[0].StartedAt.Equal(start.Add(2 * time.Hour)) {
			t.Errorf("unexpected start time %v", runs[0].StartedAt)
		}

		all, _ := repo.List(ctx, 0)
		if len(all) != 3 {
			t.Errorf("expected all runs, got %d", len(all))
		}
	})
}
