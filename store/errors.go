package store

import "errors"

var (
	// ErrNotFound is returned when no document has the requested id
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyIndexed is returned when appending a path that is already recorded
	ErrAlreadyIndexed = errors.New("document already indexed")
	// ErrInconsistent is returned when persisted metadata references vectors the index does not hold
	ErrInconsistent = errors.New("index and metadata are inconsistent")
	// ErrChunkCount is returned when chunk and vector counts differ
	ErrChunkCount = errors.New("chunk and vector count differ")
)
