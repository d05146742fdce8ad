package document

// Match is a retrieved chunk with its provenance
type Match struct {
	Path       string  `json:"document"`
	DocumentID string  `json:"document_id"`
	Chunk      string  `json:"chunk"`
	Score      float32 `json:"score"`
	Position   int     `json:"chunk_index"`
}
