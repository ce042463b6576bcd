// Package engine implements the asynchronous memory processing pipeline:
// claim, analyze, persist, extract tasks, notify. A single worker goroutine
// consumes a buffered job queue so at most one AI call is in flight at a
// time.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/scrypster/recall/internal/ai"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// SettingsSource supplies the current user settings. The engine reads through
// it on every notification decision so changes apply without a restart.
type SettingsSource interface {
	Get() (types.Settings, error)
}

// Engine is the core orchestrator for memory enrichment. Memories are
// captured synchronously by the API or the screenshot watcher; the engine
// picks them up from the queue, enriches them through the Analyzer, and
// writes results back through the stores.
type Engine struct {
	config Config

	memories storage.MemoryStore
	tasks    storage.TaskStore
	analyzer ai.Analyzer

	dispatcher Dispatcher
	settings   SettingsSource

	jobs            chan *Job
	workerWaitGroup sync.WaitGroup
	workerCtx       context.Context
	workerCancel    context.CancelFunc

	started      bool
	shuttingDown bool
	mu           sync.RWMutex

	// onStatusChange is fired after every persisted status transition,
	// used for WebSocket broadcasts.
	onStatusChange func(memoryID int64, status types.MemoryStatus)
}

// New creates an engine. The task store, dispatcher, and settings source may
// be nil; task extraction and notifications are skipped when absent.
func New(memories storage.MemoryStore, tasks storage.TaskStore, analyzer ai.Analyzer, cfg Config) (*Engine, error) {
	if memories == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:     cfg,
		memories:   memories,
		tasks:      tasks,
		analyzer:   analyzer,
		dispatcher: &LogDispatcher{},
		jobs:       make(chan *Job, cfg.QueueSize),
	}, nil
}

// SetDispatcher replaces the notification dispatcher. Must be called before
// Start.
func (e *Engine) SetDispatcher(d Dispatcher) {
	if d != nil {
		e.dispatcher = d
	}
}

// SetSettingsSource wires the user settings used for notification gating.
// Must be called before Start.
func (e *Engine) SetSettingsSource(s SettingsSource) {
	e.settings = s
}

// SetOnStatusChange sets a callback fired after every persisted status
// transition of a memory.
func (e *Engine) SetOnStatusChange(callback func(memoryID int64, status types.MemoryStatus)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatusChange = callback
}

// Start launches the worker goroutine, recovers rows stuck in processing
// from a previous run, and (when configured) sweeps the pending backlog.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	log.Println("engine: starting")

	e.workerCtx, e.workerCancel = context.WithCancel(context.Background())

	e.workerWaitGroup.Add(1)
	go e.worker(e.workerCtx)

	// Recovery and the initial sweep run in the background so Start returns
	// quickly. Recovery must finish first: it feeds the sweep.
	go func() {
		recovered, err := e.memories.RecoverStale(ctx, time.Now().Add(-e.config.StaleTimeout))
		if err != nil {
			log.Printf("engine: ERROR: stale recovery failed: %v", err)
		} else if recovered > 0 {
			log.Printf("engine: recovered %d stale processing memories", recovered)
		}

		if e.config.SweepOnStart {
			if _, err := e.Sweep(ctx); err != nil {
				log.Printf("engine: ERROR: startup sweep failed: %v", err)
			}
		}
	}()

	e.started = true
	log.Println("engine: started")
	return nil
}

// Shutdown stops the worker gracefully, draining queued jobs up to the
// configured timeout.
func (e *Engine) Shutdown(ctx context.Context) error {
	// Hold the lock only to flip the flag and close the queue: the worker
	// takes read locks while draining, so waiting under the write lock would
	// stall it.
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine not started")
	}
	log.Println("engine: shutting down")
	e.shuttingDown = true
	close(e.jobs)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.workerWaitGroup.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		log.Println("engine: worker finished gracefully")
	case <-time.After(e.config.ShutdownTimeout):
		log.Printf("engine: WARNING: shutdown timeout reached, %d jobs dropped", len(e.jobs))
		e.workerCancel()
	case <-ctx.Done():
		log.Printf("engine: WARNING: shutdown context cancelled, %d jobs dropped", len(e.jobs))
		e.workerCancel()
		err = ctx.Err()
	}

	e.workerCancel()

	e.mu.Lock()
	e.started = false
	e.shuttingDown = false
	e.mu.Unlock()
	return err
}

// EnqueueMemory queues a single memory for enrichment. Used for fresh
// captures, screenshot intake, and the manual retry of failed memories.
// Returns false when the engine is stopped or the queue is full.
func (e *Engine) EnqueueMemory(id int64) bool {
	return e.queueJob(&Job{MemoryID: id, Timestamp: time.Now()})
}

// Sweep queues every pending memory for enrichment, oldest first. Failed
// memories are deliberately excluded; they re-enter only through the
// explicit retry path. Returns the number of jobs queued.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	ids, err := e.memories.ListClaimable(ctx, types.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending memories: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if e.queueJob(&Job{MemoryID: id, Timestamp: time.Now()}) {
			queued++
		}
	}

	if queued > 0 {
		log.Printf("engine: sweep queued %d pending memories", queued)
	}
	return queued, nil
}

// QueueLength returns the current number of jobs waiting in the queue.
func (e *Engine) QueueLength() int {
	return len(e.jobs)
}

func (e *Engine) notifyStatusChange(memoryID int64, status types.MemoryStatus) {
	e.mu.RLock()
	callback := e.onStatusChange
	e.mu.RUnlock()
	if callback != nil {
		callback(memoryID, status)
	}
}
