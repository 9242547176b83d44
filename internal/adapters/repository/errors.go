package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrRead  = errors.New("snapshot store read failed")
	ErrWrite = errors.New("snapshot store write failed")
)
