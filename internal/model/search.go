package model

// Passage is one retrieved chunk with its provenance and confidence score.
// Score is 1 - distance/2 mapped onto [0, 1]; higher is closer.
type Passage struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Seq        int     `json:"seq"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type SearchResult struct {
	Query    string    `json:"query"`
	Passages []Passage `json:"passages"`
}

type Answer struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	ChunkIDs []string  `json:"chunk_ids"`
	Passages []Passage `json:"passages"`
}

type Summary struct {
	CategoryID string `json:"category_id"`
	Summary    string `json:"summary"`
	ChunkCount int    `json:"chunk_count"`
}
