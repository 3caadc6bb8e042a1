package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		filename string
		data     []byte
		want     string
	}{
		{"report.txt", nil, "txt"},
		{"schema.SQL", nil, "sql"},
		{"notes.md", nil, "md"},
		{"table.csv", nil, "csv"},
		{"table.tsv", nil, "tsv"},
		{"payload.json", nil, "json"},
		{"feed.xml", nil, "xml"},
		{"slides.PPTX", nil, "pptx"},
		{"doc.docx", nil, "docx"},
		{"book.xlsx", nil, "xlsx"},
		{"scan.pdf", nil, "pdf"},
		{"photo.jpeg", nil, "jpg"},
		{"photo.jpg", nil, "jpg"},
		{"diagram.png", nil, "png"},
		{"noext", []byte("plain text content here"), "txt"},
		{"noext", []byte("%PDF-1.7 something"), "pdf"},
		{"mystery.bin", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Detect(tc.filename, tc.data), "filename=%s", tc.filename)
	}
}

func TestRegistryUnknownFormat(t *testing.T) {
	registry := NewRegistry(NewPlainText())
	_, err := registry.Extract(context.Background(), "docx", []byte("x"))
	require.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

func TestRegistryEmptyResult(t *testing.T) {
	registry := NewRegistry(NewPlainText())
	_, err := registry.Extract(context.Background(), "txt", []byte("   \n\t  "))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestRegistrySupportedFormats(t *testing.T) {
	registry := NewRegistry(NewPlainText(), NewCSV())
	require.True(t, registry.Supports("txt"))
	require.True(t, registry.Supports("CSV"))
	require.False(t, registry.Supports("pdf"))
	require.Equal(t, []string{"csv", "sql", "tsv", "txt"}, registry.SupportedFormats())
}

func TestPlainTextSanitisesInvalidUTF8(t *testing.T) {
	text, err := NewPlainText().Extract(context.Background(), []byte{'o', 'k', 0xff, 0xfe, '!'})
	require.NoError(t, err)
	require.Contains(t, text, "ok")
	require.Contains(t, text, "!")
}

func TestMarkdownExtract(t *testing.T) {
	src := "# Title\n\nFirst paragraph with *emphasis*.\n\n```go\nfmt.Println(\"hi\")\n```\n\n- item one\n- item two\n"
	text, err := NewMarkdown().Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Contains(t, text, "Heading: Title")
	require.Contains(t, text, "First paragraph with emphasis.")
	require.Contains(t, text, "fmt.Println(\"hi\")")
	require.Contains(t, text, "item one")
	require.NotContains(t, text, "```")
}

func TestCSVExtract(t *testing.T) {
	src := "name,age\nalice,30\nbob,25\n"
	text, err := NewCSV().Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Equal(t, "name | age\nalice | 30\nbob | 25", text)
}

func TestCSVExtractTabSeparated(t *testing.T) {
	src := "name\tage\nalice\t30\n"
	text, err := NewCSV().Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Contains(t, text, "alice")
	require.Contains(t, text, "30")
}

func TestJSONExtract(t *testing.T) {
	text, err := NewJSON().Extract(context.Background(), []byte(`{"user":{"name":"alice","age":30}}`))
	require.NoError(t, err)
	require.Contains(t, text, `"name": "alice"`)
	require.Contains(t, text, `"age": 30`)
}

func TestJSONExtractInvalid(t *testing.T) {
	_, err := NewJSON().Extract(context.Background(), []byte(`{"broken":`))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestXMLExtract(t *testing.T) {
	src := `<catalog><book><title>Go in Practice</title><price>39.99</price></book></catalog>`
	text, err := NewXML().Extract(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Equal(t, "Go in Practice\n39.99", text)
}

func TestXMLExtractInvalid(t *testing.T) {
	_, err := NewXML().Extract(context.Background(), []byte(`<unclosed><tag>`))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}
