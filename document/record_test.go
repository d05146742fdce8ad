package document

import "testing"

func TestRecords_Find(t *testing.T) {
	records := NewRecords([]*Record{
		{RelativePath: "b.txt", StartIndex: 3, ChunkCount: 5, Chunks: []string{"b0", "b1", "b2", "b3", "b4"}},
		{RelativePath: "a.txt", StartIndex: 0, ChunkCount: 3, Chunks: []string{"a0", "a1", "a2"}},
		{RelativePath: "d.txt", StartIndex: 10, ChunkCount: 1, Chunks: []string{"d0"}},
	})

	tests := []struct {
		name     string
		position int
		path     string
		chunk    string
	}{
		{name: "first position", position: 0, path: "a.txt", chunk: "a0"},
		{name: "end of first record", position: 2, path: "a.txt", chunk: "a2"},
		{name: "start of second record", position: 3, path: "b.txt", chunk: "b0"},
		{name: "last of second record", position: 7, path: "b.txt", chunk: "b4"},
		{name: "gap left by deleted record", position: 8},
		{name: "after gap", position: 10, path: "d.txt", chunk: "d0"},
		{name: "past the end", position: 11},
		{name: "negative", position: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			record := records.Find(tc.position)
			if tc.path == "" {
				if record != nil {
					t.Fatalf("expected no record, got %s", record.RelativePath)
				}
				return
			}
			if record == nil {
				t.Fatalf("expected %s, got nil", tc.path)
			}
			if record.RelativePath != tc.path {
				t.Fatalf("expected %s, got %s", tc.path, record.RelativePath)
			}
			chunk, ok := record.Chunk(tc.position)
			if !ok || chunk != tc.chunk {
				t.Fatalf("expected chunk %q, got %q (%v)", tc.chunk, chunk, ok)
			}
		})
	}
	if got := records.Total(); got != 9 {
		t.Fatalf("expected total 9, got %d", got)
	}
}
