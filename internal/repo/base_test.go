package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestBaseDB_ContextBinding(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base to hold the provided connection")
	}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatalf("expected a context-bound session")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", bound.Statement.Context)
	}

	if raw := base.DB(nil); raw != db {
		t.Fatalf("expected nil context to return the raw connection")
	}
}
