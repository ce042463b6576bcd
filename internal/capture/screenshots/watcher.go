// Package screenshots captures screenshots dropped into a watched directory
// as pending memories.
package screenshots

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// Enqueuer hands a freshly captured memory to the processing engine.
type Enqueuer interface {
	EnqueueMemory(id int64) bool
}

// SettingsSource supplies the current user settings; the watch toggle is
// read per event so flipping it takes effect immediately.
type SettingsSource interface {
	Get() (types.Settings, error)
}

// Watcher watches a directory for new screenshots and captures each one as
// a pending memory, exactly once per file.
type Watcher struct {
	dir      string
	memories storage.MemoryStore
	engine   Enqueuer
	settings SettingsSource

	watcher *fsnotify.Watcher
	dedup   *deduper
	done    chan struct{}
}

// NewWatcher creates a screenshot watcher over dir. The settings source may
// be nil, in which case the watch is always enabled.
func NewWatcher(dir string, memories storage.MemoryStore, engine Enqueuer, settings SettingsSource) *Watcher {
	return &Watcher{
		dir:      dir,
		memories: memories,
		engine:   engine,
		settings: settings,
		dedup:    newDeduper(dedupWindow),
		done:     make(chan struct{}),
	}
}

// Start begins watching. Call Stop to clean up.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw

	go w.loop()
	log.Printf("screenshots: watching %s", w.dir)
	return nil
}

// Stop shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handle(evt.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("screenshots: watcher error: %v", err)
		}
	}
}

// handle runs one filesystem event through the predicate, the watch toggle,
// and the dedup window, then captures the screenshot.
func (w *Watcher) handle(path string) {
	if !IsScreenshot(path) {
		return
	}

	if w.settings != nil {
		settings, err := w.settings.Get()
		if err != nil {
			log.Printf("screenshots: WARNING: failed to load settings: %v", err)
		} else if !settings.ScreenshotWatchEnabled {
			return
		}
	}

	if !w.dedup.Accept(path, time.Now()) {
		return
	}

	w.capture(path)
}

// capture inserts a pending memory wrapping the screenshot and queues it
// for enrichment.
func (w *Watcher) capture(path string) {
	ctx := context.Background()

	id, err := w.memories.Insert(ctx, &types.Memory{
		ImagePath: path,
		Source:    "screenshot",
	})
	if err != nil {
		log.Printf("screenshots: ERROR: failed to capture %s: %v", filepath.Base(path), err)
		return
	}

	if !w.engine.EnqueueMemory(id) {
		// Stays pending; the next sweep picks it up.
		log.Printf("screenshots: queue full, memory %d left for sweep", id)
		return
	}
	log.Printf("screenshots: captured %s as memory %d", filepath.Base(path), id)
}

// IsScreenshot reports whether the file name looks like a screenshot:
// it contains "screenshot" (case-insensitive) and is not a thumbnail.
func IsScreenshot(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.Contains(name, "screenshot") && !strings.Contains(name, "thumbnail")
}
