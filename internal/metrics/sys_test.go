package metrics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "coach.db")
	if err := os.WriteFile(dbPath, make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("Failed to write db file: %v", err)
	}
	exportsPath := filepath.Join(dir, "exports")
	if err := os.MkdirAll(exportsPath, 0o755); err != nil {
		t.Fatalf("Failed to create exports dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(exportsPath, "week1.ics"), []byte("BEGIN:VCALENDAR"), 0o644); err != nil {
		t.Fatalf("Failed to write export: %v", err)
	}

	health := Snapshot(dbPath, exportsPath)

	if health.DatabaseSize != "2.0 KB" {
		t.Errorf("Expected 2.0 KB database, got %s", health.DatabaseSize)
	}
	if health.ExportsSize != "15 B" {
		t.Errorf("Expected 15 B of exports, got %s", health.ExportsSize)
	}
	if health.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", health.Goroutines)
	}
}

func TestSnapshotMissingPaths(t *testing.T) {
	health := Snapshot(filepath.Join(t.TempDir(), "missing.db"), filepath.Join(t.TempDir(), "missing"))
	if health.DatabaseSize != "0 B" || health.ExportsSize != "0 B" {
		t.Errorf("Expected 0 B for missing paths, got %s / %s", health.DatabaseSize, health.ExportsSize)
	}
}
