package pebble

import (
	"errors"

	"github.com/coverlabs/mulberry/pkg/db"
)

var (
	// ErrNotFound aliases db.ErrNotFound so callers can match on either.
	ErrNotFound = db.ErrNotFound

	ErrBatchDone = errors.New("pebble: batch already committed or closed")

	errIteratorCreation = "create iterator: %w"
)
