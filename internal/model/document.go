package model

// Document status values. A document moves forward only:
// pending -> extracting -> chunking -> embedding -> indexed.
// failed and cancelled are terminal alternatives reachable from any
// non-terminal status.
const (
	DocStatusPending    = "pending"
	DocStatusExtracting = "extracting"
	DocStatusChunking   = "chunking"
	DocStatusEmbedding  = "embedding"
	DocStatusIndexed    = "indexed"
	DocStatusFailed     = "failed"
	DocStatusCancelled  = "cancelled"
)

type Document struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	StoredKey   string `json:"stored_key"`
	Format      string `json:"format"`
	SizeBytes   int64  `json:"size_bytes"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	TotalChunks int    `json:"total_chunks"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

func IsTerminalDocStatus(status string) bool {
	switch status {
	case DocStatusIndexed, DocStatusFailed, DocStatusCancelled:
		return true
	}
	return false
}
