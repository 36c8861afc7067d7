package draft

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to the draft files of a FileStore directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	log      *zap.Logger
	metrics  *Metrics
}

// NewWatcher watches dir. debounce coalesces bursts of filesystem events;
// 0 uses 100ms.
func NewWatcher(dir string, debounce time.Duration, log *zap.Logger, m *Metrics) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch directory %s: %w", dir, err)
	}
	return &Watcher{
		watcher:  fsw,
		dir:      dir,
		debounce: debounce,
		log:      log.Named("draft-watch"),
		metrics:  m,
	}, nil
}

// Watch starts watching and returns a channel of draft events. Cancelling
// the context stops watching and closes the channel.
func (w *Watcher) Watch(ctx context.Context) <-chan Event {
	out := make(chan Event, 64)

	go func() {
		defer close(out)

		pending := make(map[string]fsnotify.Event)
		var order []string

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}

		flush := func() bool {
			for _, name := range order {
				ev := w.toEvent(pending[name])
				w.metrics.event(ev.Type)
				select {
				case out <- ev:
				case <-ctx.Done():
					return false
				}
			}
			clear(pending)
			order = order[:0]
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				base := filepath.Base(event.Name)
				// temp files from atomic writes
				if strings.Contains(base, ".tmp-") || !isDraftFile(base) {
					continue
				}
				if _, seen := pending[base]; !seen {
					order = append(order, base)
				}
				// the last event for a file wins
				pending[base] = event
				timer.Reset(w.debounce)

			case <-timer.C:
				if len(order) > 0 && !flush() {
					return
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))
			}
		}
	}()

	return out
}

// Close stops watching and cleans up resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) toEvent(ev fsnotify.Event) Event {
	out := Event{UID: uidFromFile(filepath.Base(ev.Name)), Type: EventSaved, Time: time.Now()}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if _, err := os.Stat(ev.Name); err != nil {
			out.Type = EventRemoved
			return out
		}
	}
	if d, err := readDraftFile(ev.Name); err == nil {
		out.Draft = d
		out.UID = d.UID
	}
	return out
}

func uidFromFile(base string) string {
	return strings.TrimSuffix(strings.TrimPrefix(base, "paciente-draft-"), ".json")
}
