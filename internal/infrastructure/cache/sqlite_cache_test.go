package cache

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"insiden/internal/infrastructure/persistence/sqlite/model"
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
	if err := db.AutoMigrate(&model.StatusKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGetDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "incident_status:1"); err != nil || found {
		t.Fatalf("Get() before set = found %v, err %v", found, err)
	}

	if err := c.Set(ctx, "incident_status:1", "DRAFT", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := c.Get(ctx, "incident_status:1")
	if err != nil || !found || value != "DRAFT" {
		t.Fatalf("Get() = %q, %v, %v", value, found, err)
	}

	// Overwrite.
	if err := c.Set(ctx, "incident_status:1", "SUBMITTED", 0); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	value, _, _ = c.Get(ctx, "incident_status:1")
	if value != "SUBMITTED" {
		t.Fatalf("Get() after overwrite = %q", value)
	}

	if err := c.Delete(ctx, "incident_status:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "incident_status:1"); found {
		t.Fatalf("Get() after delete found = true")
	}
}

func TestCacheRejectsEmptyKey(t *testing.T) {
	c := setupCache(t)

	if err := c.Set(context.Background(), "  ", "x", 0); err == nil {
		t.Fatalf("Set(empty key) error = nil")
	}
	if _, _, err := c.Get(context.Background(), ""); err == nil {
		t.Fatalf("Get(empty key) error = nil")
	}
}
