package document

import (
	"sort"
)

// Record binds an indexed source document to its chunks and the
// vector index range [StartIndex, StartIndex+ChunkCount) they occupy.
type Record struct {
	ID           string   `json:"id"`
	RelativePath string   `json:"relative_path"`
	FilePath     string   `json:"file_path,omitempty"`
	Hash         uint64   `json:"hash,omitempty"`
	ChunkCount   int      `json:"chunk_count"`
	Chunks       []string `json:"chunks"`
	StartIndex   int      `json:"start_index"`
}

// EndIndex returns the exclusive end of the record's index range
func (r *Record) EndIndex() int {
	return r.StartIndex + r.ChunkCount
}

// Contains reports whether position falls inside the record's range
func (r *Record) Contains(position int) bool {
	return position >= r.StartIndex && position < r.EndIndex()
}

// Chunk returns the chunk text stored at an absolute index position
func (r *Record) Chunk(position int) (string, bool) {
	if !r.Contains(position) {
		return "", false
	}
	local := position - r.StartIndex
	if local >= len(r.Chunks) {
		return "", false
	}
	return r.Chunks[local], true
}

// Summary returns the listing view of the record
func (r *Record) Summary() Summary {
	return Summary{ID: r.ID, Name: r.RelativePath, ChunkCount: r.ChunkCount}
}

// Summary describes an indexed document for listings
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ChunkCount int    `json:"chunk_count"`
}

// Records is a collection of records ordered by StartIndex
type Records []*Record

// NewRecords returns records sorted by StartIndex
func NewRecords(records []*Record) Records {
	ret := make(Records, len(records))
	copy(ret, records)
	sort.Slice(ret, func(i, j int) bool { return ret[i].StartIndex < ret[j].StartIndex })
	return ret
}

// Find returns the record owning the position, or nil when the position
// belongs to no live record (e.g. a deleted document)
func (r Records) Find(position int) *Record {
	if position < 0 {
		return nil
	}
	i := sort.Search(len(r), func(i int) bool { return r[i].EndIndex() > position })
	if i < len(r) && r[i].Contains(position) {
		return r[i]
	}
	return nil
}

// Total returns the sum of chunk counts
func (r Records) Total() int {
	total := 0
	for _, record := range r {
		total += record.ChunkCount
	}
	return total
}
