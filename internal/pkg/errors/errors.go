package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	ErrTooMany  = errors.New("too many requests")
	ErrInternal = errors.New("internal")

	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrExtraction         = errors.New("extraction failed")
	ErrInvalidChunkConfig = errors.New("invalid chunk config")
	ErrEmptyInput         = errors.New("empty input")
	ErrEmbeddingBackend   = errors.New("embedding backend error")
	ErrRateLimited        = errors.New("backend rate limited")
	ErrTimeout            = errors.New("backend timeout")
	ErrInvalidQueryParams = errors.New("invalid query params")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCancelled          = errors.New("cancelled")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
