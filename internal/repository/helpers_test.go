package repository

import (
	"testing"

	"github.com/jmoiron/sqlx"
)

// newTestDB opens an in-memory database with all migrations applied.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	return db
}
