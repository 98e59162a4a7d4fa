package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfmark/shelfmark/engine"
)

func TestStoreInterface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*PostgresStore)(nil)
	var _ engine.SettingsSource = (*MemoryStore)(nil)
}

func TestMemoryStoreLoadSettingsDefaults(t *testing.T) {
	s := NewMemoryStore()

	settings, err := s.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}
	if settings.AutoHoldDays != 7 || !settings.AutoHoldEnabled {
		t.Errorf("unsaved store should yield defaults, got %+v", settings)
	}
}

func TestMemoryStoreSaveAndLoadSettings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	want := engine.DefaultSettings()
	want.AutoHoldDays = 14
	want.CustomStatuses = []engine.Status{{ID: "shelf", Label: "Shelf"}}

	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}
	got, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}
	if got.AutoHoldDays != 14 {
		t.Errorf("AutoHoldDays = %v, want 14", got.AutoHoldDays)
	}
	if len(got.CustomStatuses) != 1 || got.CustomStatuses[0].ID != "shelf" {
		t.Errorf("CustomStatuses = %+v, want the saved shelf status", got.CustomStatuses)
	}
}

func TestMemoryStoreWorkLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	work := &engine.Work{
		ID:            "w-1",
		Title:         "Some Long Story",
		ReadingStatus: engine.StatusReading,
		AddedAt:       time.Now(),
	}
	if err := s.AddWork(ctx, work); err != nil {
		t.Fatalf("AddWork() failed: %v", err)
	}
	if work.Version != 1 {
		t.Errorf("AddWork() version = %d, want 1", work.Version)
	}

	if err := s.AddWork(ctx, &engine.Work{ID: "w-1"}); err == nil {
		t.Error("AddWork() with duplicate id should fail")
	}

	got, err := s.GetWork(ctx, "w-1")
	if err != nil {
		t.Fatalf("GetWork() failed: %v", err)
	}
	if got.Title != work.Title {
		t.Errorf("GetWork().Title = %q, want %q", got.Title, work.Title)
	}

	// Returned copies must not alias the stored record.
	got.Title = "mangled"
	again, _ := s.GetWork(ctx, "w-1")
	if again.Title == "mangled" {
		t.Error("GetWork() returned a shared reference")
	}

	got, _ = s.GetWork(ctx, "w-1")
	got.ReadingStatus = engine.StatusOnHold
	if err := s.UpdateWork(ctx, got); err != nil {
		t.Fatalf("UpdateWork() failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("UpdateWork() version = %d, want 2", got.Version)
	}

	if err := s.DeleteWork(ctx, "w-1"); err != nil {
		t.Fatalf("DeleteWork() failed: %v", err)
	}
	if _, err := s.GetWork(ctx, "w-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWork() after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.AddWork(ctx, &engine.Work{ID: "w-1", ReadingStatus: engine.StatusReading}); err != nil {
		t.Fatalf("AddWork() failed: %v", err)
	}

	first, _ := s.GetWork(ctx, "w-1")
	second, _ := s.GetWork(ctx, "w-1")

	first.ReadingStatus = engine.StatusOnHold
	if err := s.UpdateWork(ctx, first); err != nil {
		t.Fatalf("first UpdateWork() failed: %v", err)
	}

	second.ReadingStatus = engine.StatusDropped
	err := s.UpdateWork(ctx, second)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale UpdateWork() = %v, want ErrVersionConflict", err)
	}

	// The first writer's change survives.
	got, _ := s.GetWork(ctx, "w-1")
	if got.ReadingStatus != engine.StatusOnHold {
		t.Errorf("ReadingStatus = %q, want %q", got.ReadingStatus, engine.StatusOnHold)
	}
}

func TestMemoryStoreListWorks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.AddWork(ctx, &engine.Work{ID: id, ReadingStatus: engine.StatusReading}); err != nil {
			t.Fatalf("AddWork(%s) failed: %v", id, err)
		}
	}

	works, err := s.ListWorks(ctx)
	if err != nil {
		t.Fatalf("ListWorks() failed: %v", err)
	}
	if len(works) != 3 {
		t.Fatalf("ListWorks() returned %d works, want 3", len(works))
	}
	for i, id := range []string{"a", "b", "c"} {
		if works[i].ID != id {
			t.Errorf("works[%d].ID = %q, want %q", i, works[i].ID, id)
		}
	}
}

func TestMemoryStoreNotFoundErrors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetWork(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWork(ghost) = %v, want ErrNotFound", err)
	}
	if err := s.UpdateWork(ctx, &engine.Work{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateWork(ghost) = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWork(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteWork(ghost) = %v, want ErrNotFound", err)
	}
}
