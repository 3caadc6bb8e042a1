package extract

import (
	"context"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// Extractor turns one payload format into plain text. Implementations never
// touch document state; they only classify their own failures.
type Extractor interface {
	Formats() []string
	Extract(ctx context.Context, data []byte) (string, error)
}

type Registry struct {
	byFormat map[string]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byFormat: make(map[string]Extractor)}
	for _, e := range extractors {
		if e == nil {
			continue
		}
		for _, format := range e.Formats() {
			key := strings.ToLower(strings.TrimSpace(format))
			if key == "" {
				continue
			}
			r.byFormat[key] = e
		}
	}
	return r
}

func (r *Registry) Supports(format string) bool {
	_, ok := r.byFormat[strings.ToLower(format)]
	return ok
}

func (r *Registry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for format := range r.byFormat {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Extract dispatches to the format's extractor and guarantees the result is
// usable: unknown formats fail with ErrUnsupportedFormat, extractors that
// produce no text fail with ErrExtraction. Backend-tagged errors (rate
// limits, timeouts from OCR) pass through untouched.
func (r *Registry) Extract(ctx context.Context, format string, data []byte) (string, error) {
	extractor, ok := r.byFormat[strings.ToLower(format)]
	if !ok {
		return "", appErr.ErrUnsupportedFormat
	}
	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", appErr.ErrExtraction
	}
	return text, nil
}

var extByFormat = map[string]string{
	".txt":  "txt",
	".text": "txt",
	".log":  "txt",
	".sql":  "sql",
	".md":   "md",
	".csv":  "csv",
	".tsv":  "tsv",
	".json": "json",
	".xml":  "xml",
	".docx": "docx",
	".xlsx": "xlsx",
	".pptx": "pptx",
	".pdf":  "pdf",
	".png":  "png",
	".jpg":  "jpg",
	".jpeg": "jpg",
	".gif":  "gif",
	".bmp":  "bmp",
	".webp": "webp",
}

// Detect maps a filename to its format tag, falling back to content sniffing
// when the extension is missing or unknown. Returns "" for undetectable
// payloads.
func Detect(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if format, ok := extByFormat[ext]; ok {
		return format
	}
	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "image/png"):
		return "png"
	case strings.HasPrefix(sniffed, "image/jpeg"):
		return "jpg"
	case strings.HasPrefix(sniffed, "image/gif"):
		return "gif"
	case strings.HasPrefix(sniffed, "image/bmp"):
		return "bmp"
	case strings.HasPrefix(sniffed, "image/webp"):
		return "webp"
	case strings.HasPrefix(sniffed, "application/pdf"):
		return "pdf"
	case strings.HasPrefix(sniffed, "text/plain"):
		return "txt"
	}
	return ""
}
