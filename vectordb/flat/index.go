// Package flat implements an exact, append-only inner product vector index.
//
// Positions are assigned densely in insertion order starting at zero and are
// never reused. Vectors are stored as given; callers normalize if they want
// cosine similarity.
package flat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/bintly"
)

const formatVersion = 1

var (
	// ErrDimensionMismatch is returned when a vector length differs from the index dimension
	ErrDimensionMismatch = errors.New("flat: dimension mismatch")
	// ErrCorrupt is returned when persisted bytes cannot be decoded
	ErrCorrupt = errors.New("flat: corrupt index data")
)

// Match is a scored index position
type Match struct {
	Position int
	Score    float32
}

// Index stores vectors contiguously, row-major
type Index struct {
	dimension int
	count     int
	vectors   []float32
	// payload bounds the float count DecodeBinary may allocate, zero when unknown
	payload int
}

// New creates an empty index. A zero dimension is fixed by the first Append.
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Dimension returns vector length, zero when not yet fixed
func (i *Index) Dimension() int {
	return i.dimension
}

// Total returns number of stored vectors
func (i *Index) Total() int {
	return i.count
}

// Append adds vectors at positions Total()..Total()+len(vectors)-1.
// The batch is validated before anything is stored.
func (i *Index) Append(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dimension := i.dimension
	if dimension == 0 {
		dimension = len(vectors[0])
		if dimension == 0 {
			return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
		}
	}
	for k, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, k, len(v), dimension)
		}
	}
	i.dimension = dimension
	for _, v := range vectors {
		i.vectors = append(i.vectors, v...)
	}
	i.count += len(vectors)
	return nil
}

// Vector returns a copy of the vector at position
func (i *Index) Vector(position int) ([]float32, bool) {
	if position < 0 || position >= i.count {
		return nil, false
	}
	offset := position * i.dimension
	ret := make([]float32, i.dimension)
	copy(ret, i.vectors[offset:offset+i.dimension])
	return ret, true
}

// Search returns up to k positions ranked by descending inner product with query.
// Ties are broken by lower position.
func (i *Index) Search(query []float32, k int) ([]Match, error) {
	if i.count == 0 || k <= 0 {
		return []Match{}, nil
	}
	if len(query) != i.dimension {
		return nil, fmt.Errorf("%w: query has %d values, expected %d", ErrDimensionMismatch, len(query), i.dimension)
	}
	matches := make([]Match, i.count)
	for pos := 0; pos < i.count; pos++ {
		row := i.vectors[pos*i.dimension : (pos+1)*i.dimension]
		var score float32
		for j, v := range row {
			score += v * query[j]
		}
		matches[pos] = Match{Position: pos, Score: score}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// EncodeBinary writes the index to a bintly stream
func (i *Index) EncodeBinary(stream *bintly.Writer) error {
	stream.Int(formatVersion)
	stream.Int(i.dimension)
	stream.Int(i.count)
	for _, v := range i.vectors {
		stream.Float32(v)
	}
	return nil
}

// DecodeBinary reads the index from a bintly stream
func (i *Index) DecodeBinary(stream *bintly.Reader) error {
	var version, dimension, count int
	stream.Int(&version)
	if version != formatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	stream.Int(&dimension)
	stream.Int(&count)
	if dimension < 0 || count < 0 || (count > 0 && dimension == 0) {
		return fmt.Errorf("%w: dimension %d, count %d", ErrCorrupt, dimension, count)
	}
	if i.payload > 0 && count > 0 && count > i.payload/4/dimension {
		return fmt.Errorf("%w: dimension %d, count %d exceed %d payload bytes", ErrCorrupt, dimension, count, i.payload)
	}
	vectors := make([]float32, dimension*count)
	for j := range vectors {
		stream.Float32(&vectors[j])
	}
	i.dimension, i.count, i.vectors, i.payload = dimension, count, vectors, 0
	return nil
}

// Marshal encodes the index into bytes
func (i *Index) Marshal() ([]byte, error) {
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)
	if err := i.EncodeBinary(writer); err != nil {
		return nil, err
	}
	data := writer.Bytes()
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret, nil
}

// Unmarshal decodes an index previously produced by Marshal
func Unmarshal(data []byte) (ret *Index, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrCorrupt)
	}
	// truncated input makes the reader index past the buffer
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()
	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	ret = &Index{payload: len(data)}
	if err := ret.DecodeBinary(reader); err != nil {
		return nil, err
	}
	return ret, nil
}
