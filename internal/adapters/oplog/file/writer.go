// Package file appends operation-log events to a local
// newline-delimited JSON file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vshulcz/Intfstat/internal/services/oplog"
)

// Writer appends events to the configured path. A Writer with an empty
// path discards everything, so wiring can stay unconditional.
type Writer struct {
	path string
	mu   sync.Mutex
}

// New creates a Writer for the given filesystem path.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Notify marshals the event and appends it to the log file.
func (w *Writer) Notify(_ context.Context, evt oplog.Event) (retErr error) {
	if w == nil || w.path == "" {
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal oplog event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open oplog file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close oplog file: %w", cerr)
		}
	}()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write oplog file: %w", err)
	}
	return nil
}
