package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("vectorstore: store is closed")

	// ErrDimensionMismatch is returned when an embedding's length does not
	// match the store's configured dimensions. Validation happens before any
	// write, so a batch containing one bad chunk writes nothing.
	ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")
)

// StoreError wraps transport-level failures (connection, SQL execution).
// The store never retries; callers own the retry policy.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vectorstore: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
