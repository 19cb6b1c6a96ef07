// Package filedrop ingests telemetry from a spool directory: external
// producers write JSON event files, the watcher picks them up and feeds
// them through the normal ingestion path.
//
// Producers must write files atomically (write to a temp file outside the
// spool, then rename in); the watcher reacts to file creation, not writes.
package filedrop

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/invisible-tech/streamwatch/internal/types"
)

// Ingester is the sink for decoded events; the engine satisfies it.
type Ingester interface {
	Ingest(types.Event) (types.MetricsSnapshot, *types.Anomaly, error)
}

// Config for the spool watcher.
type Config struct {
	Dir string

	// RemoveAfter deletes spool files once their events are ingested.
	RemoveAfter bool
}

// Watcher tails a spool directory for *.json event files.
type Watcher struct {
	cfg     Config
	log     *logrus.Logger
	sink    Ingester
	watcher *fsnotify.Watcher
}

// New creates a Watcher on cfg.Dir, which must exist.
func New(cfg Config, sink Ingester, log *logrus.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(cfg.Dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{cfg: cfg, log: log, sink: sink, watcher: fw}, nil
}

// Start drains files already in the spool, then blocks watching for new
// ones until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.WithField("dir", w.cfg.Dir).Info("Starting spool watcher")

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			w.ingestFile(filepath.Join(w.cfg.Dir, ent.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				w.ingestFile(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Spool watcher error")
		}
	}
}

// ingestFile decodes one or more events from path and feeds them to the
// sink. Malformed files are skipped, not fatal.
func (w *Watcher) ingestFile(path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.WithError(err).WithField("file", path).Debug("Failed to read spool file")
		return
	}
	events, err := DecodeEvents(data)
	if err != nil {
		w.log.WithError(err).WithField("file", path).Warn("Skipping malformed spool file")
		return
	}
	for _, ev := range events {
		if _, _, err := w.sink.Ingest(ev); err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"file":     path,
				"event_id": ev.ID,
			}).Warn("Spooled event rejected")
		}
	}
	if w.cfg.RemoveAfter {
		if err := os.Remove(path); err != nil {
			w.log.WithError(err).WithField("file", path).Debug("Failed to remove spool file")
		}
	}
}

// DecodeEvents accepts either a single JSON event object or an array of
// them.
func DecodeEvents(data []byte) ([]types.Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []types.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var ev types.Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, err
	}
	return []types.Event{ev}, nil
}
