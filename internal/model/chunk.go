package model

// Chunk is one window of extracted text. Identity within a document is the
// zero-based Seq; Start/End are rune offsets into the extracted text.
type Chunk struct {
	Seq   int    `json:"seq"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// IndexEntry is what the vector index stores: the chunk text, its embedding
// and enough identity to map a hit back to (document, seq).
type IndexEntry struct {
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
}

// ScoredEntry is a query hit. Distance is cosine distance (smaller is
// closer); callers convert it to a user-facing confidence score.
type ScoredEntry struct {
	IndexEntry
	Distance float32 `json:"distance"`
}
