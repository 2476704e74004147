package tkv

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when a key is not found in the store.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// ErrInternal is returned when an internal error occurs.
type ErrInternal struct {
	Err error
}

func (e *ErrInternal) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *ErrInternal) Unwrap() error {
	return e.Err
}

// ErrValueTooLarge is returned when a value cannot be held by the store.
// It carries sizes only, never the value.
type ErrValueTooLarge struct {
	Key   string
	Size  int
	Limit int
}

func (e *ErrValueTooLarge) Error() string {
	return fmt.Sprintf("value for key %s is %d bytes, store limit is %d", e.Key, e.Size, e.Limit)
}

func IsErrKeyNotFound(err error) bool {
	var nf *ErrKeyNotFound
	return errors.As(err, &nf)
}
