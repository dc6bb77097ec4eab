package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"juchu/internal/infrastructure/persistence/sqlite/model"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.ExportCacheEntry{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGetDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "2024"); err != nil || found {
		t.Fatalf("Get miss = (%v, %v), want (false, nil)", found, err)
	}

	if err := c.Set(ctx, "2024", "csv-body", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, found, err := c.Get(ctx, "2024")
	if err != nil || !found || value != "csv-body" {
		t.Fatalf("Get = (%q, %v, %v), want (csv-body, true, nil)", value, found, err)
	}

	if err := c.Set(ctx, "2024", "csv-body-2", 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	value, _, err = c.Get(ctx, "2024")
	if err != nil || value != "csv-body-2" {
		t.Fatalf("Get after overwrite = (%q, %v)", value, err)
	}

	if err := c.Delete(ctx, "2024"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, err := c.Get(ctx, "2024"); err != nil || found {
		t.Fatalf("Get after delete = (%v, %v), want (false, nil)", found, err)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	if err := c.Set(ctx, "2024", "csv-body", 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, found, err := c.Get(ctx, "2024"); err != nil || !found {
		t.Fatalf("Get before expiry = (%v, %v), want (true, nil)", found, err)
	}

	current = current.Add(6 * time.Minute)
	if _, found, err := c.Get(ctx, "2024"); err != nil || found {
		t.Fatalf("Get after expiry = (%v, %v), want (false, nil)", found, err)
	}
}

func TestCacheClear(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "2023", "a", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "2024", "b", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	for _, key := range []string{"2023", "2024"} {
		if _, found, err := c.Get(ctx, key); err != nil || found {
			t.Fatalf("Get %q after clear = (%v, %v), want (false, nil)", key, found, err)
		}
	}
}
