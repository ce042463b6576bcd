package engine

import (
	"log"
	"time"
)

// queueJob attempts to queue a job without blocking. Returns false when the
// queue is full or the engine is not running; the memory stays pending and
// a later sweep will pick it up. The read lock pairs with the write lock held
// around close(e.jobs) in Shutdown, so a send can never race the close.
func (e *Engine) queueJob(job *Job) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.started || e.shuttingDown {
		return false
	}

	select {
	case e.jobs <- job:
		return true
	default:
		log.Printf("engine: WARNING: queue full (size=%d), dropping job for memory %d",
			e.config.QueueSize, job.MemoryID)
		return false
	}
}

// requeueJob attempts to requeue a job after a transient failure. Returns
// false when the attempt cap is reached or the engine is shutting down.
// The retry delay is applied by the worker when it picks the job up again.
func (e *Engine) requeueJob(job *Job) bool {
	if job.Attempt+1 >= e.config.MaxAttempts {
		log.Printf("engine: max attempts (%d) reached for memory %d, giving up",
			e.config.MaxAttempts, job.MemoryID)
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.shuttingDown {
		log.Printf("engine: WARNING: not requeueing memory %d, shutdown in progress", job.MemoryID)
		return false
	}

	job.Attempt++

	select {
	case e.jobs <- job:
		log.Printf("engine: requeued memory %d (attempt %d/%d)",
			job.MemoryID, job.Attempt+1, e.config.MaxAttempts)
		return true
	case <-time.After(10 * time.Millisecond):
		job.Attempt--
		log.Printf("engine: WARNING: failed to requeue memory %d, queue timeout", job.MemoryID)
		return false
	}
}

// retryBackoff returns the delay applied before re-processing a retried job:
// attempt² × base.
func (e *Engine) retryBackoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * e.config.RetryBackoffBase
}
