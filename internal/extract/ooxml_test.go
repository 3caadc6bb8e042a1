package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

func buildArchive(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDocxExtract(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := buildArchive(t, map[string]string{"word/document.xml": document})

	text, err := NewDocx().Extract(context.Background(), data)
	require.NoError(t, err)
	require.Equal(t, "Hello world\nSecond paragraph", text)
}

func TestDocxExtractMissingPart(t *testing.T) {
	data := buildArchive(t, map[string]string{"word/styles.xml": "<styles/>"})
	_, err := NewDocx().Extract(context.Background(), data)
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestDocxExtractCorruptArchive(t *testing.T) {
	_, err := NewDocx().Extract(context.Background(), []byte("this is not a zip"))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestXlsxExtract(t *testing.T) {
	shared := `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Name</t></si>
  <si><t>Alice</t></si>
  <si><r><t>Bo</t></r><r><t>b</t></r></si>
</sst>`
	sheet := `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row><c t="s"><v>0</v></c><c><v>42</v></c></row>
    <row><c t="s"><v>1</v></c><c t="inlineStr"><is><t>inline</t></is></c></row>
    <row><c t="s"><v>2</v></c><c><v>7</v></c></row>
  </sheetData>
</worksheet>`
	data := buildArchive(t, map[string]string{
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
	})

	text, err := NewXlsx().Extract(context.Background(), data)
	require.NoError(t, err)
	require.Contains(t, text, "Sheet: sheet1")
	require.Contains(t, text, "Name | 42")
	require.Contains(t, text, "Alice | inline")
	require.Contains(t, text, "Bob | 7")
}

func TestXlsxExtractNoWorksheets(t *testing.T) {
	data := buildArchive(t, map[string]string{"xl/workbook.xml": "<workbook/>"})
	_, err := NewXlsx().Extract(context.Background(), data)
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestPptxExtract(t *testing.T) {
	slideTpl := `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`
	data := buildArchive(t, map[string]string{
		"ppt/slides/slide2.xml":  fmt.Sprintf(slideTpl, "Closing notes"),
		"ppt/slides/slide1.xml":  fmt.Sprintf(slideTpl, "Opening title"),
		"ppt/slides/slide10.xml": fmt.Sprintf(slideTpl, "Appendix"),
	})

	text, err := NewPptx().Extract(context.Background(), data)
	require.NoError(t, err)
	openIdx := strings.Index(text, "Opening title")
	closeIdx := strings.Index(text, "Closing notes")
	appendixIdx := strings.Index(text, "Appendix")
	require.True(t, openIdx >= 0 && closeIdx > openIdx && appendixIdx > closeIdx, "slides out of order: %s", text)
}
