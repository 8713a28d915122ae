// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"hospital-appointments/internal/database"
	"hospital-appointments/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// The pool holds a single connection so concurrent transactions queue
// instead of failing with SQLITE_BUSY.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "", 1)
}

// NewConcurrentDB is NewDB with several pooled connections sharing one cache.
// Readers take no table locks, so a transaction that has only read so far
// lets another connection commit underneath it. Tests use it to stage lost
// races deterministically from inside an open transaction.
func NewConcurrentDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "&_pragma=read_uncommitted(1)", 4)
}

func open(t testing.TB, pragmas string, conns int) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)%s", uuid.NewString(), pragmas)
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Discard(), gormlogger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// idle connections keep the in-memory database alive
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
