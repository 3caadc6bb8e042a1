package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// JSON re-indents the payload so nested values stay searchable without the
// noise of a single-line document.
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (e *JSON) Formats() []string {
	return []string{"json"}
}

func (e *JSON) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	var value interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return "", fmt.Errorf("%w: parse json: %v", appErr.ErrExtraction, err)
	}
	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: render json: %v", appErr.ErrExtraction, err)
	}
	return string(pretty), nil
}

// XML flattens a document to its character data, one text node per line.
type XML struct{}

func NewXML() *XML {
	return &XML{}
}

func (e *XML) Formats() []string {
	return []string{"xml"}
}

func (e *XML) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var lines []string
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse xml: %v", appErr.ErrExtraction, err)
		}
		if chardata, ok := token.(xml.CharData); ok {
			if text := strings.TrimSpace(string(chardata)); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
