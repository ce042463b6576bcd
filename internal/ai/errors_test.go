package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestClassifyDNSFailure(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "api.example.com", IsNotFound: true}
	wrapped := fmt.Errorf("request failed: %w", dnsErr)

	got := Classify("analysis call", wrapped)
	if got.Kind != KindTransient {
		t.Errorf("Classify(DNS error).Kind = %q, want %q", got.Kind, KindTransient)
	}
	if !IsTransient(got) {
		t.Error("IsTransient(classified DNS error) = false, want true")
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	err := fmt.Errorf("doing request: %w", context.DeadlineExceeded)
	if got := Classify("call", err); got.Kind != KindTransient {
		t.Errorf("Classify(deadline).Kind = %q, want %q", got.Kind, KindTransient)
	}
}

func TestClassifyOpErrorDeepInChain(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	wrapped := fmt.Errorf("provider: %w", fmt.Errorf("transport: %w", opErr))

	if got := Classify("call", wrapped); got.Kind != KindTransient {
		t.Errorf("Classify(wrapped OpError).Kind = %q, want %q", got.Kind, KindTransient)
	}
}

func TestClassifyDefaultsToPermanent(t *testing.T) {
	err := errors.New("response missing required field: summary")
	got := Classify("validation", err)
	if got.Kind != KindPermanent {
		t.Errorf("Classify(schema error).Kind = %q, want %q", got.Kind, KindPermanent)
	}
	if IsTransient(got) {
		t.Error("IsTransient(permanent error) = true, want false")
	}
}

func TestIsTransientOnExplicitKinds(t *testing.T) {
	if !IsTransient(Transient("net down", nil)) {
		t.Error("IsTransient(Transient) = false")
	}
	if IsTransient(Permanent("bad schema", nil)) {
		t.Error("IsTransient(Permanent) = true")
	}
	// A permanent error wrapping a net error keeps its explicit kind.
	inner := &net.DNSError{Err: "no such host"}
	if IsTransient(Permanent("quota exceeded", inner)) {
		t.Error("explicit permanent kind should win over wrapped transport error")
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{500, KindTransient},
		{503, KindTransient},
		{401, KindPermanent}, // auth
		{403, KindPermanent},
		{429, KindPermanent}, // quota
		{400, KindPermanent},
	}
	for _, tc := range cases {
		if got := classifyHTTPStatus(tc.status); got != tc.want {
			t.Errorf("classifyHTTPStatus(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}
