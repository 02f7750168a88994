package events

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// DiagnosticMirror writes invariant_violation events to a shared directory
// as individual files, so an operator (or another process) can tail them
// without subscribing to the in-process Broadcaster. Adapted from the
// teacher's cross-process enrichment-event notification (internal/notify):
// same write-a-file / fsnotify-watch-the-directory shape, narrowed here to
// a single diagnostic event kind instead of general enrichment completion.
type DiagnosticMirror struct {
	dir string
}

// NewDiagnosticMirror creates a mirror that writes to {dataDir}/diagnostics/.
func NewDiagnosticMirror(dataDir string) *DiagnosticMirror {
	return &DiagnosticMirror{dir: filepath.Join(dataDir, "diagnostics")}
}

// diagnosticRecord is the on-disk payload for a mirrored event.
type diagnosticRecord struct {
	Variant   string `json:"variant"`
	MemoryID  string `json:"memory_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Mirror writes e to disk if it is an invariant_violation event; all other
// variants are ignored. Errors are logged, not returned — a diagnostics
// write failure must never affect the caller's hot path.
func (m *DiagnosticMirror) Mirror(e types.Event) {
	if e.Variant != types.EvInvariantViolation {
		return
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		log.Printf("events: diagnostic mirror mkdir %s: %v", m.dir, err)
		return
	}

	rec := diagnosticRecord{
		Variant:   string(e.Variant),
		MemoryID:  e.MemoryID,
		Detail:    e.Detail,
		Timestamp: e.Timestamp.UnixNano(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("events: diagnostic mirror marshal: %v", err)
		return
	}

	filename := fmt.Sprintf("%d-%s.json", rec.Timestamp, sanitizeID(e.MemoryID))
	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Printf("events: diagnostic mirror write %s: %v", path, err)
	}
}

// Watch starts an fsnotify watch over the mirror directory and invokes
// callback for every diagnostic file that appears, draining any files
// already present first. Returns a stop function.
func (m *DiagnosticMirror) Watch(callback func(variant, memoryID, detail string)) (stop func(), err error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(m.dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	done := make(chan struct{})
	drainDiagnostics(m.dir, callback)

	go func() {
		defer close(done)
		for {
			select {
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if evt.Op&fsnotify.Create != 0 && strings.HasSuffix(evt.Name, ".json") {
					processDiagnosticFile(evt.Name, callback)
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("events: diagnostic watcher error: %v", werr)
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}, nil
}

func drainDiagnostics(dir string, callback func(variant, memoryID, detail string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			processDiagnosticFile(filepath.Join(dir, entry.Name()), callback)
		}
	}
}

func processDiagnosticFile(path string, callback func(variant, memoryID, detail string)) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = os.Remove(path)

	var rec diagnosticRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("events: invalid diagnostic file %s: %v", filepath.Base(path), err)
		return
	}
	if callback != nil {
		callback(rec.Variant, rec.MemoryID, rec.Detail)
	}
}

func sanitizeID(id string) string {
	if id == "" {
		id = "none"
	}
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case '/', ':', '\\':
			out[i] = '_'
		default:
			out[i] = id[i]
		}
	}
	return string(out)
}
