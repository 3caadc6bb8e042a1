package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// The OOXML formats are zip containers around XML parts. Each extractor
// below opens the archive, pulls the parts that carry visible text and
// flattens them; styling, layout and embedded media are ignored.

type Docx struct{}

func NewDocx() *Docx {
	return &Docx{}
}

func (e *Docx) Formats() []string {
	return []string{"docx"}
}

type docxDocument struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

func (e *Docx) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	archive, err := openArchive(data)
	if err != nil {
		return "", err
	}
	part, err := readArchiveFile(archive, "word/document.xml")
	if err != nil {
		return "", err
	}
	var doc docxDocument
	if err := xml.Unmarshal(part, &doc); err != nil {
		return "", fmt.Errorf("%w: parse document.xml: %v", appErr.ErrExtraction, err)
	}
	paragraphs := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

type Xlsx struct{}

func NewXlsx() *Xlsx {
	return &Xlsx{}
}

func (e *Xlsx) Formats() []string {
	return []string{"xlsx"}
}

type xlsxSharedStrings struct {
	Items []xlsxSharedItem `xml:"si"`
}

type xlsxSharedItem struct {
	Text string        `xml:"t"`
	Runs []xlsxTextRun `xml:"r"`
}

type xlsxTextRun struct {
	Text string `xml:"t"`
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		Text string `xml:"t"`
	} `xml:"is"`
}

func (e *Xlsx) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	archive, err := openArchive(data)
	if err != nil {
		return "", err
	}
	shared, err := readXlsxSharedStrings(archive)
	if err != nil {
		return "", err
	}
	var sheetFiles []string
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles = append(sheetFiles, f.Name)
		}
	}
	if len(sheetFiles) == 0 {
		return "", fmt.Errorf("%w: workbook has no worksheets", appErr.ErrExtraction)
	}
	sortByTrailingNumber(sheetFiles)

	var sheets []string
	for _, name := range sheetFiles {
		part, err := readArchiveFile(archive, name)
		if err != nil {
			return "", err
		}
		var ws xlsxWorksheet
		if err := xml.Unmarshal(part, &ws); err != nil {
			return "", fmt.Errorf("%w: parse %s: %v", appErr.ErrExtraction, name, err)
		}
		var rows []string
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			empty := true
			for _, cell := range row.Cells {
				value := resolveXlsxCell(cell, shared)
				if strings.TrimSpace(value) != "" {
					empty = false
				}
				cells = append(cells, value)
			}
			if !empty {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
		if len(rows) > 0 {
			sheets = append(sheets, "Sheet: "+strings.TrimSuffix(path.Base(name), ".xml")+"\n"+strings.Join(rows, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}

func readXlsxSharedStrings(archive *zip.Reader) ([]string, error) {
	part, err := readArchiveFile(archive, "xl/sharedStrings.xml")
	if err != nil {
		// The part is optional; workbooks of pure numbers omit it.
		return nil, nil
	}
	var sst xlsxSharedStrings
	if err := xml.Unmarshal(part, &sst); err != nil {
		return nil, fmt.Errorf("%w: parse sharedStrings.xml: %v", appErr.ErrExtraction, err)
	}
	values := make([]string, 0, len(sst.Items))
	for _, item := range sst.Items {
		if item.Text != "" {
			values = append(values, item.Text)
			continue
		}
		var sb strings.Builder
		for _, run := range item.Runs {
			sb.WriteString(run.Text)
		}
		values = append(values, sb.String())
	}
	return values, nil
}

func resolveXlsxCell(cell xlsxCell, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(cell.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return cell.Inline.Text
	default:
		return cell.Value
	}
}

type Pptx struct{}

func NewPptx() *Pptx {
	return &Pptx{}
}

func (e *Pptx) Formats() []string {
	return []string{"pptx"}
}

func (e *Pptx) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	archive, err := openArchive(data)
	if err != nil {
		return "", err
	}
	var slideFiles []string
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slideFiles = append(slideFiles, f.Name)
		}
	}
	if len(slideFiles) == 0 {
		return "", fmt.Errorf("%w: presentation has no slides", appErr.ErrExtraction)
	}
	sortByTrailingNumber(slideFiles)

	var slides []string
	for i, name := range slideFiles {
		part, err := readArchiveFile(archive, name)
		if err != nil {
			return "", err
		}
		lines, err := collectTextRuns(part)
		if err != nil {
			return "", fmt.Errorf("%w: parse %s: %v", appErr.ErrExtraction, name, err)
		}
		if len(lines) > 0 {
			slides = append(slides, fmt.Sprintf("Slide %d:\n%s", i+1, strings.Join(lines, "\n")))
		}
	}
	return strings.Join(slides, "\n\n"), nil
}

// collectTextRuns walks a DrawingML part and gathers the contents of every
// <a:t> element.
func collectTextRuns(part []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(part))
	var lines []string
	var inText bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				if text := strings.TrimSpace(string(t)); text != "" {
					lines = append(lines, text)
				}
			}
		}
	}
	return lines, nil
}

func openArchive(data []byte) (*zip.Reader, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open archive: %v", appErr.ErrExtraction, err)
	}
	return archive, nil
}

func readArchiveFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", appErr.ErrExtraction, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", appErr.ErrExtraction, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: missing archive part %s", appErr.ErrExtraction, name)
}

var trailingNumber = regexp.MustCompile(`(\d+)\.xml$`)

func sortByTrailingNumber(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return trailingNumberOf(names[i]) < trailingNumberOf(names[j])
	})
}

func trailingNumberOf(name string) int {
	m := trailingNumber.FindStringSubmatch(name)
	if len(m) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
