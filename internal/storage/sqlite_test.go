package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/stage2048/internal/replay"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	for _, s := range []struct{ score, level int }{{100, 2}, {50, 1}, {200, 3}} {
		if _, err := store.SaveScore("levels", s.score, s.level); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}
	if _, err := store.SaveScore("classic", 500, 3); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("levels", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}

	// Should be sorted descending
	if scores[0].Score != 200 || scores[1].Score != 100 || scores[2].Score != 50 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
	if scores[0].Level != 3 || scores[0].Mode != "levels" {
		t.Errorf("Unexpected top entry: %+v", scores[0])
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not parsed")
	}

	classic, err := store.TopScores("classic", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(classic) != 1 {
		t.Errorf("Expected 1 classic score, got %d", len(classic))
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		store.SaveScore("test", (i+1)*100, i)
	}

	scores, err := store.TopScores("test", 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores with limit, got %d", len(scores))
	}
	if scores[0].Score != 500 || scores[1].Score != 400 || scores[2].Score != 300 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
}

func TestStoreHighScoreAndClear(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore("levels")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty mode, got %d", high)
	}

	store.SaveScore("levels", 100, 1)
	store.SaveScore("levels", 300, 2)
	store.SaveScore("classic", 50, 1)

	if high, _ = store.HighScore("levels"); high != 300 {
		t.Errorf("Expected high score of 300, got %d", high)
	}

	if err := store.ClearScores("levels"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}
	if all, _ := store.AllScores("levels"); len(all) != 0 {
		t.Errorf("Expected 0 scores after clear, got %d", len(all))
	}
	if all, _ := store.AllScores("classic"); len(all) != 1 {
		t.Error("classic scores should not be affected by clearing levels")
	}
}

func TestStoreGetStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.GetStats("levels")
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if empty.GamesCount != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}

	store.SaveScore("levels", 100, 2)
	store.SaveScore("levels", 300, 4)

	stats, err := store.GetStats("levels")
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.GamesCount != 2 || stats.HighScore != 300 || stats.BestLevel != 4 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AvgScore != 200 || stats.TotalScore != 400 {
		t.Errorf("avg=%v total=%d", stats.AvgScore, stats.TotalScore)
	}
}

func TestStoreSaves(t *testing.T) {
	store := openTestStore(t)
	state := bytes.Repeat([]byte(`{"size":4,"game":{"grid":[[0,2,0,0]]}}`), 20)

	id, err := store.SaveGame("slot1", state, 3, 120)
	if err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	got, err := store.LoadGame("slot1")
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if !bytes.Equal(got, state) {
		t.Error("LoadGame() did not return the saved bytes")
	}

	// overwrite keeps the id
	id2, err := store.SaveGame("slot1", []byte(`{}`), 4, 300)
	if err != nil {
		t.Fatalf("SaveGame() overwrite failed: %v", err)
	}
	if id2 != id {
		t.Errorf("overwrite changed id %s -> %s", id, id2)
	}

	store.SaveGame("slot2", []byte(`{}`), 1, 0)
	saves, err := store.ListSaves()
	if err != nil {
		t.Fatalf("ListSaves() failed: %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("Expected 2 saves, got %d", len(saves))
	}
	for _, s := range saves {
		if s.Name == "slot1" && (s.Level != 4 || s.Total != 300) {
			t.Errorf("slot1 info = %+v", s)
		}
	}

	if err := store.DeleteSave("slot1"); err != nil {
		t.Fatalf("DeleteSave() failed: %v", err)
	}
	if _, err := store.LoadGame("slot1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadGame() after delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSave("slot1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSave() = %v, want ErrNotFound", err)
	}
	if _, err := store.SaveGame("", nil, 0, 0); err == nil {
		t.Error("SaveGame() with empty name should fail")
	}
}

func TestStoreReplays(t *testing.T) {
	store := openTestStore(t)

	rec := replay.Record{
		Seed:       "abc",
		Moves:      "LLRUDN",
		Rules:      replay.Rules{StartSize: 3, CarryScore: true, TargetKey: "fibonacci"},
		FinalTotal: 64,
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	id, err := store.SaveReplay(rec)
	if err != nil {
		t.Fatalf("SaveReplay() failed: %v", err)
	}
	if id == "" {
		t.Fatal("SaveReplay() returned an empty id")
	}

	got, err := store.LoadReplay(id)
	if err != nil {
		t.Fatalf("LoadReplay() failed: %v", err)
	}
	if got.Seed != "abc" || got.Moves != "LLRUDN" || got.FinalTotal != 64 {
		t.Errorf("LoadReplay() = %+v", got)
	}
	if got.Rules.TargetKey != "fibonacci" || got.Rules.StartSize != 3 {
		t.Errorf("rules = %+v", got.Rules)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	later := rec
	later.CreatedAt = rec.CreatedAt.Add(time.Hour)
	store.SaveReplay(later)

	list, err := store.ListReplays(10)
	if err != nil {
		t.Fatalf("ListReplays() failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 replays, got %d", len(list))
	}
	if list[0].ID == id {
		t.Error("ListReplays() should return the newest first")
	}

	if _, err := store.LoadReplay("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadReplay(missing) = %v, want ErrNotFound", err)
	}
}

func TestStoreExpandHomePath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
