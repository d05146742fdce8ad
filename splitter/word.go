package splitter

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the default number of words per chunk
	DefaultChunkSize = 512
	// DefaultOverlap is the default number of words shared by consecutive chunks
	DefaultOverlap = 50
)

// ErrInvalidConfig is returned for window settings that cannot make forward progress
var ErrInvalidConfig = errors.New("splitter: invalid chunk configuration")

// WordSplitter splits text into overlapping fixed-size word windows
type WordSplitter struct {
	chunkSize int
	overlap   int
}

// NewWordSplitter creates a splitter; overlap must satisfy 0 <= overlap < chunkSize
func NewWordSplitter(chunkSize, overlap int) (*WordSplitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfig, overlap, chunkSize)
	}
	return &WordSplitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns words per chunk
func (s *WordSplitter) ChunkSize() int { return s.chunkSize }

// Overlap returns words shared between consecutive chunks
func (s *WordSplitter) Overlap() int { return s.overlap }

// Split returns chunks in reading order. Each window starts chunkSize-overlap
// words after the previous one; the last window may be shorter.
func (s *WordSplitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := s.chunkSize - s.overlap
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
