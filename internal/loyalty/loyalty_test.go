package loyalty

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KILATIV100/perkup-ecosystem/internal/database"
	"github.com/KILATIV100/perkup-ecosystem/internal/migrations"
)

// newTestStore opens a migrated in-memory database with the seed catalog
// (two locations, five games, eight achievements).
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.OpenTest(context.Background())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

func newTestUser(t *testing.T, store *SQLiteStore, telegramID int64) User {
	t.Helper()
	u, err := store.UpsertUser(context.Background(), telegramID, fmt.Sprintf("user%d", telegramID), "Test", "")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Seeded location "mark-mall".
const (
	markMallID  int64 = 1
	markMallLat       = 50.514794
	markMallLon       = 30.782308
)
