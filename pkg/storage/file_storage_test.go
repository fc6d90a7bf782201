package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorage_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	ctx := context.Background()

	in := map[string]int{"generator": 85}
	if err := store.Save(ctx, "scores.json", in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var out map[string]int
	if err := store.Load(ctx, "scores.json", &out); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out["generator"] != 85 {
		t.Errorf("unexpected content %v", out)
	}

	exists, err := store.Exists(ctx, "scores.json")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v", exists, err)
	}

	if err := store.Delete(ctx, "scores.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Load(ctx, "scores.json", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "scores.json"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestFileStorage_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStorage(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, "trending_data.json", map[string]int{"run": i}); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "trending_data.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory contents %v", names)
	}

	var out map[string]int
	_ = store.Load(ctx, "trending_data.json", &out)
	if out["run"] != 2 {
		t.Errorf("expected last write to win, got %v", out)
	}
}

func TestFileStorage_List(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStorage(dir)
	ctx := context.Background()

	for _, key := range []string{"rising_only_trends_20240102_000000.json", "rising_only_trends_20240101_000000.json", "other.json"} {
		if err := store.Save(ctx, key, struct{}{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "rising_only_trends_x.json.123.tmp"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	keys, err := store.List(ctx, ReportPrefix)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "rising_only_trends_20240101_000000.json" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "file.json"), []byte("{}"), 0644)
	if err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
