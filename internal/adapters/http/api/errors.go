package api

import (
	"errors"
	"fmt"
)

// ErrNotFound marks requests for resources that do not exist.
var ErrNotFound = errors.New("not found")

// NotFound tags err as ErrNotFound for the failing operation.
func NotFound(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
}

// Wrap annotates err with the failing operation.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
