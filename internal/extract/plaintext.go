package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// PlainText passes the payload through as UTF-8, replacing invalid byte
// sequences instead of failing on them.
type PlainText struct{}

func NewPlainText() *PlainText {
	return &PlainText{}
}

func (e *PlainText) Formats() []string {
	return []string{"txt", "sql"}
}

func (e *PlainText) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}
