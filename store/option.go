package store

import "github.com/viant/afs"

// Option configures a Store
type Option func(s *Store)

// WithDimension sets the dimension of a newly created index; 0 adopts the first appended batch
func WithDimension(dimension int) Option {
	return func(s *Store) {
		s.dimension = dimension
	}
}

// WithFS sets the storage service
func WithFS(fs afs.Service) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLogf sets the logger
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// AppendOptions controls Append
type AppendOptions struct {
	// Replace allows re-recording an existing path; the previous vectors stay orphaned in the index
	Replace bool
	// Persist writes the pair before releasing the lock
	Persist bool
}
