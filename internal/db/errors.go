package db

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection means the store could not be reached or rejected the credentials.
	ErrConnection = errors.New("cannot connect to the database")
	// ErrValidation means the input was rejected before touching the store.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound means no task has the requested id.
	ErrNotFound = errors.New("task not found")
)

// StoreError is a driver failure while executing or committing a statement.
// Nothing from the failed operation has been committed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func notFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}
