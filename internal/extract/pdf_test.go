package extract

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

type mockRunner struct {
	output   []byte
	err      error
	lastName string
	lastArgs []string
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.lastName = name
	m.lastArgs = args
	return m.output, m.err
}

func TestPDFExtract(t *testing.T) {
	runner := &mockRunner{output: []byte("page one text\npage two text")}
	text, err := NewPDF(runner).Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	require.Equal(t, "page one text\npage two text", text)
	require.Equal(t, "pdftotext", runner.lastName)
	require.Equal(t, "-", runner.lastArgs[len(runner.lastArgs)-1])

	// The staged temp file must be gone once extraction returns.
	stagedPath := runner.lastArgs[len(runner.lastArgs)-2]
	_, statErr := os.Stat(stagedPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestPDFExtractCommandFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}
	_, err := NewPDF(runner).Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}
