//go:build integration

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shelfmark/shelfmark/engine"
)

// setupTestDB starts a PostgreSQL container and applies the initial schema.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "shelfmark_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/shelfmark_test?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	migrationSQL, err := os.ReadFile("../migrations/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgres.Terminate(ctx)
	}
	return db, cleanup
}

func TestPostgresStoreSettingsRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	// Empty table yields defaults.
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}
	if settings.AutoHoldDays != 7 {
		t.Errorf("AutoHoldDays = %v, want default 7", settings.AutoHoldDays)
	}

	settings.AutoHoldDays = 21
	settings.Rules = []engine.SavedRule{
		{
			ID:           "drop-stale",
			Trigger:      engine.TriggerInactivity,
			FromStatuses: []string{engine.StatusOnHold},
			ToStatus:     engine.StatusDropped,
			Conditions:   &engine.Conditions{InactivityDays: 180},
		},
	}
	if err := s.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}

	got, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() after save failed: %v", err)
	}
	if got.AutoHoldDays != 21 {
		t.Errorf("AutoHoldDays = %v, want 21", got.AutoHoldDays)
	}
	if len(got.Rules) != 1 || got.Rules[0].ID != "drop-stale" {
		t.Errorf("Rules = %+v, want the saved custom rule", got.Rules)
	}

	// Saving again overwrites the single row.
	got.AutoHoldDays = 3
	if err := s.SaveSettings(ctx, got); err != nil {
		t.Fatalf("second SaveSettings() failed: %v", err)
	}
	again, _ := s.LoadSettings(ctx)
	if again.AutoHoldDays != 3 {
		t.Errorf("AutoHoldDays = %v, want 3 after overwrite", again.AutoHoldDays)
	}
}

func TestPostgresStoreWorkLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	work := &engine.Work{
		ID:              uuid.NewString(),
		Title:           "Tower of Chapters",
		ReadingStatus:   engine.StatusReading,
		LastReadChapter: 12,
		CurrentChapter:  12,
		AddedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.AddWork(ctx, work); err != nil {
		t.Fatalf("AddWork() failed: %v", err)
	}

	got, err := s.GetWork(ctx, work.ID)
	if err != nil {
		t.Fatalf("GetWork() failed: %v", err)
	}
	if got.Title != work.Title || got.LastReadChapter != 12 || got.Version != 1 {
		t.Errorf("GetWork() = %+v, want the inserted work", got)
	}

	got.ReadingStatus = engine.StatusOnHold
	got.LastUpdatedAt = time.Now().UTC()
	if err := s.UpdateWork(ctx, got); err != nil {
		t.Fatalf("UpdateWork() failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2 after update", got.Version)
	}

	works, err := s.ListWorks(ctx)
	if err != nil {
		t.Fatalf("ListWorks() failed: %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("ListWorks() returned %d works, want 1", len(works))
	}

	if err := s.DeleteWork(ctx, work.ID); err != nil {
		t.Fatalf("DeleteWork() failed: %v", err)
	}
	if _, err := s.GetWork(ctx, work.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWork() after delete = %v, want ErrNotFound", err)
	}
}

func TestPostgresStoreVersionConflict(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	work := &engine.Work{
		ID:            uuid.NewString(),
		Title:         "Contested",
		ReadingStatus: engine.StatusReading,
		AddedAt:       time.Now().UTC(),
	}
	if err := s.AddWork(ctx, work); err != nil {
		t.Fatalf("AddWork() failed: %v", err)
	}

	first, _ := s.GetWork(ctx, work.ID)
	second, _ := s.GetWork(ctx, work.ID)

	first.ReadingStatus = engine.StatusOnHold
	if err := s.UpdateWork(ctx, first); err != nil {
		t.Fatalf("first UpdateWork() failed: %v", err)
	}

	second.ReadingStatus = engine.StatusDropped
	if err := s.UpdateWork(ctx, second); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale UpdateWork() = %v, want ErrVersionConflict", err)
	}

	if err := s.UpdateWork(ctx, &engine.Work{ID: uuid.NewString(), Version: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateWork() on missing work = %v, want ErrNotFound", err)
	}
}
