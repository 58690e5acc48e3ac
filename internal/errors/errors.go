// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned while the customer list is still loading
var ErrNotReady = errors.New("customers are still loading")

// StorageOperationFailed wraps whatever the database engine reported for one operation
type StorageOperationFailed struct {
	Op  string
	Err error
}

func (e *StorageOperationFailed) Error() string {
	return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
}

func (e *StorageOperationFailed) Unwrap() error {
	return e.Err
}

// Helper constructor
func NewStorageOperationFailed(op string, err error) error {
	return &StorageOperationFailed{Op: op, Err: err}
}

// IsStorageOperationFailed reports whether err (or anything it wraps) is a storage failure
func IsStorageOperationFailed(err error) bool {
	var target *StorageOperationFailed
	return errors.As(err, &target)
}
