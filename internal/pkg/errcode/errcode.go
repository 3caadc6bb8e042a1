package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrUnsupportedFormat
	ErrExtractionFailed
	ErrInvalidChunkConfig
	ErrEmptyInput
	ErrEmbeddingBackend
	ErrRateLimited
	ErrTimeout
	ErrInvalidQueryParams
	ErrCollectionNotFound
	ErrCategoryNotFound
	ErrCancelled
	ErrInvalidFile
	ErrAIUnavailable
)
