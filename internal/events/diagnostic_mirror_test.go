package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

func TestDiagnosticMirror_WritesFileForInvariantViolation(t *testing.T) {
	dir := t.TempDir()
	m := NewDiagnosticMirror(dir)

	m.Mirror(types.Event{
		Variant:   types.EvInvariantViolation,
		MemoryID:  "mem-1",
		Detail:    "state mismatch",
		Timestamp: time.Now(),
	})

	entries, err := os.ReadDir(filepath.Join(dir, "diagnostics"))
	if err != nil {
		t.Fatalf("expected diagnostics directory to exist: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one diagnostic file, got %d", len(entries))
	}
}

func TestDiagnosticMirror_IgnoresNonViolationEvents(t *testing.T) {
	dir := t.TempDir()
	m := NewDiagnosticMirror(dir)

	m.Mirror(types.Event{Variant: types.EvMemoryCreated, MemoryID: "mem-2"})

	if _, err := os.Stat(filepath.Join(dir, "diagnostics")); !os.IsNotExist(err) {
		t.Errorf("expected no diagnostics directory to be created for a non-violation event")
	}
}

func TestDiagnosticMirror_WatchDeliversExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewDiagnosticMirror(dir)

	m.Mirror(types.Event{Variant: types.EvInvariantViolation, MemoryID: "pre-existing", Timestamp: time.Now()})

	received := make(chan string, 4)
	stop, err := m.Watch(func(variant, memoryID, detail string) {
		received <- memoryID
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	defer stop()

	select {
	case id := <-received:
		if id != "pre-existing" {
			t.Errorf("expected to drain pre-existing file first, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pre-existing diagnostic file to be drained")
	}

	m.Mirror(types.Event{Variant: types.EvInvariantViolation, MemoryID: "fresh", Timestamp: time.Now()})

	select {
	case id := <-received:
		if id != "fresh" {
			t.Errorf("expected fresh diagnostic file, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for newly written diagnostic file")
	}
}
