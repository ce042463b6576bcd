package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorKind classifies an enrichment failure for the worker's retry decision.
type ErrorKind string

const (
	// KindTransient marks connectivity-class failures worth retrying later.
	KindTransient ErrorKind = "transient"

	// KindPermanent marks failures that will not succeed on retry
	// (auth, quota, malformed or schema-invalid responses).
	KindPermanent ErrorKind = "permanent"
)

// EnrichmentError is the typed failure surfaced by every Analyzer
// implementation.
type EnrichmentError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *EnrichmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s enrichment error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s enrichment error: %s", e.Kind, e.Msg)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable enrichment failure.
func Transient(msg string, err error) *EnrichmentError {
	return &EnrichmentError{Kind: KindTransient, Msg: msg, Err: err}
}

// Permanent wraps err as a terminal enrichment failure.
func Permanent(msg string, err error) *EnrichmentError {
	return &EnrichmentError{Kind: KindPermanent, Msg: msg, Err: err}
}

// IsTransient reports whether err is classified as retryable. Errors that
// are not EnrichmentErrors are classified by inspecting the causal chain.
func IsTransient(err error) bool {
	var ee *EnrichmentError
	if errors.As(err, &ee) {
		return ee.Kind == KindTransient
	}
	return isTransportError(err)
}

// Classify wraps an arbitrary provider error into the taxonomy. Connectivity
// failures (DNS resolution, refused connections, timeouts, or any wrapped
// I/O error in the chain) are transient; everything else is permanent.
func Classify(msg string, err error) *EnrichmentError {
	if isTransportError(err) {
		return Transient(msg, err)
	}
	return Permanent(msg, err)
}

// isTransportError walks the causal chain for connectivity-class failures.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// classifyHTTPStatus maps a provider HTTP status to the taxonomy: server-side
// errors are retryable; auth, quota, and client errors are not.
func classifyHTTPStatus(status int) ErrorKind {
	if status >= 500 {
		return KindTransient
	}
	return KindPermanent
}
