package db

import "errors"

// ErrNotFound is returned by Get for keys with no value.
var ErrNotFound = errors.New("db: key not found")

// KVStore is the storage interface the engine persists its tables through.
// Implementations must make each Put/Delete durable before returning.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch is an atomic group of writes. Everything in a committed batch
// becomes visible together; a dropped batch leaves no trace.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator walks key-value pairs in ascending key order within [start, end).
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
