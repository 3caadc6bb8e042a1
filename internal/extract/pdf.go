package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// CommandRunner abstracts the shell-out so tests can fake the pdftotext
// binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDF extracts text through poppler's pdftotext. The payload is staged in a
// temp file because the tool reads from disk; output is requested on stdout.
type PDF struct {
	runner CommandRunner
}

func NewPDF(runner CommandRunner) *PDF {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDF{runner: runner}
}

func (e *PDF) Formats() []string {
	return []string{"pdf"}
}

func (e *PDF) Extract(ctx context.Context, data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "pdf-extract-")
	if err != nil {
		return "", fmt.Errorf("%w: temp dir: %v", appErr.ErrExtraction, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: stage pdf: %v", appErr.ErrExtraction, err)
	}
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext: %v", appErr.ErrExtraction, err)
	}
	return string(out), nil
}
