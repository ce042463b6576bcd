package engine

import (
	"fmt"
	"time"
)

// Job is one unit of enrichment work: a memory id plus retry bookkeeping.
type Job struct {
	MemoryID  int64
	Attempt   int
	Timestamp time.Time
}

// Config holds the processing engine configuration.
type Config struct {
	// QueueSize is the capacity of the job channel.
	QueueSize int

	// MaxAttempts is the total number of enrichment attempts before a memory
	// is marked failed. Transient failures retry up to this cap; permanent
	// failures never retry.
	MaxAttempts int

	// StaleTimeout is how old a processing row's updated_at must be before
	// startup recovery resets it to pending.
	StaleTimeout time.Duration

	// RetryBackoffBase scales the quadratic retry delay:
	// attempt² × RetryBackoffBase.
	RetryBackoffBase time.Duration

	// ShutdownTimeout bounds the graceful drain of in-flight work.
	ShutdownTimeout time.Duration

	// SweepOnStart enqueues the pending backlog right after startup recovery.
	SweepOnStart bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:        100,
		MaxAttempts:      3,
		StaleTimeout:     15 * time.Minute,
		RetryBackoffBase: 500 * time.Millisecond,
		ShutdownTimeout:  30 * time.Second,
		SweepOnStart:     true,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoffBase < 0 {
		return fmt.Errorf("retry backoff base must not be negative, got %v", c.RetryBackoffBase)
	}
	return nil
}
