package model

// EmbeddingCache is a persisted embedding keyed by the hash of the text it
// was computed from, so unchanged chunks skip the backend on re-ingestion.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
