package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// CSV renders delimiter-separated rows as readable lines: cells joined with
// " | ", one row per line.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (e *CSV) Formats() []string {
	return []string{"csv", "tsv"}
}

func (e *CSV) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	text, err := renderSeparated(data, ',')
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	// Retry as TSV before giving up; Detect cannot tell the two apart when
	// the extension lies.
	if tabText, tabErr := renderSeparated(data, '\t'); tabErr == nil {
		return tabText, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: parse csv: %v", appErr.ErrExtraction, err)
	}
	return text, nil
}

func renderSeparated(data []byte, comma rune) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(record, " | "))
	}
	return sb.String(), nil
}
