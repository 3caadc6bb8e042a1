package model

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

// CategoryStats enriches a category with the counters the list endpoint
// reports.
type CategoryStats struct {
	Category
	DocumentCount int `json:"document_count"`
	IndexedCount  int `json:"indexed_count"`
}
