package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

var ErrUnavailable = errors.New("ai provider not configured")

// classifyBackendErr normalises provider failures onto the shared taxonomy:
// 429s become ErrRateLimited, deadline hits become ErrTimeout, everything
// else is wrapped in fallback (when given) so callers can errors.Is on it.
// The original error text is preserved for logs.
func classifyBackendErr(err error, fallback error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, appErr.ErrRateLimited) || errors.Is(err, appErr.ErrTimeout) || errors.Is(err, appErr.ErrEmptyInput) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", appErr.ErrTimeout, err)
	}
	if statusCodeOf(err) == http.StatusTooManyRequests || isRateLimitText(err) {
		return fmt.Errorf("%w: %v", appErr.ErrRateLimited, err)
	}
	if fallback != nil {
		return fmt.Errorf("%w: %v", fallback, err)
	}
	return err
}

func statusCodeOf(err error) int {
	var pErr *genai.APIError
	if errors.As(err, &pErr) {
		return pErr.Code
	}
	var vErr genai.APIError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	var hErr *httpStatusError
	if errors.As(err, &hErr) {
		return hErr.status
	}
	return 0
}

func isRateLimitText(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "resource exhausted")
}

// httpStatusError carries the status of a failed REST call from the
// OpenAI-compatible providers.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("request failed: %d: %s", e.status, e.body)
}
