package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ValidationError, "invalid spec", nil)
	if !IsCategory(err, ValidationError) {
		t.Fatalf("expected validation category match")
	}
	if IsCategory(err, NotFoundError) {
		t.Fatalf("expected not-found category mismatch")
	}

	wrapped := errors.New("wrap: " + err.Error())
	if IsCategory(wrapped, ValidationError) {
		t.Fatalf("plain wrapped string error must not match typed category")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ValidationError) {
		t.Fatalf("expected category match through errors.Join")
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ConflictError, "volume already exists", nil)
	if got := Category(err); got != ConflictError {
		t.Fatalf("expected ConflictError, got %s", got)
	}

	inner := NewTypedError(TimeoutError, "no response from remote", nil)
	outer := fmt.Errorf("reconcile profile web: %w", inner)
	if got := Category(outer); got != TimeoutError {
		t.Fatalf("expected TimeoutError through wrapping, got %s", got)
	}

	if got := Category(errors.New("boom")); got != InternalError {
		t.Fatalf("expected InternalError fallback, got %s", got)
	}
}

func TestTypedErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewTypedError(RemoteError, "incus rejected the request", cause)
	if err.Error() != "incus rejected the request: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
}
