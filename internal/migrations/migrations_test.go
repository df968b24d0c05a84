package migrations_test

import (
	"context"
	"testing"

	"github.com/KILATIV100/perkup-ecosystem/internal/database"
	"github.com/KILATIV100/perkup-ecosystem/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.OpenTest(context.Background())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{
		"users", "sessions", "admins", "admin_sessions",
		"locations", "checkins", "games", "game_sessions",
		"leaderboard", "achievements", "user_achievements",
		"events", "event_participants", "notifications",
	}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.OpenTest(context.Background())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

func TestSeedData(t *testing.T) {
	db, err := database.OpenTest(context.Background())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	var locations, games int
	if err := db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&locations); err != nil {
		t.Fatalf("counting locations: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM games").Scan(&games); err != nil {
		t.Fatalf("counting games: %v", err)
	}

	if locations == 0 {
		t.Error("expected seeded locations")
	}
	if games == 0 {
		t.Error("expected seeded games")
	}
}
