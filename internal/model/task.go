package model

// Task status values reported to pollers of the ingestion queue.
const (
	TaskStatusQueued  = "queued"
	TaskStatusRunning = "running"
	TaskStatusSuccess = "success"
	TaskStatusFailure = "failure"
)

type Task struct {
	ID              string `json:"id"`
	DocumentID      string `json:"document_id"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	CancelRequested int    `json:"cancel_requested"`
	Ctime           int64  `json:"ctime"`
	Mtime           int64  `json:"mtime"`
}

func IsTerminalTaskStatus(status string) bool {
	return status == TaskStatusSuccess || status == TaskStatusFailure
}
