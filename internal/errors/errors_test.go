package appErrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStorageOperationFailedWrapsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewStorageOperationFailed("add_customer", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected error to wrap cause")
	}
	if !strings.Contains(err.Error(), "add_customer") || !strings.Contains(err.Error(), "disk I/O error") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsStorageOperationFailed(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewStorageOperationFailed("list_customers", errors.New("boom")))
	if !IsStorageOperationFailed(wrapped) {
		t.Errorf("expected wrapped storage failure to be detected")
	}
	if IsStorageOperationFailed(ErrNotReady) {
		t.Errorf("ErrNotReady is not a storage failure")
	}
	if IsStorageOperationFailed(nil) {
		t.Errorf("nil is not a storage failure")
	}
}
