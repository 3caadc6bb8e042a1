package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// IGenerator binds a provider to one generation model with a call deadline.
// maxOutputTokens caps the reply length; zero keeps the backend default.
type IGenerator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

type generator struct {
	provider IProvider
	model    string
	timeout  time.Duration
}

func NewGenerator(p IProvider, model string, timeout time.Duration) IGenerator {
	return &generator{provider: p, model: model, timeout: timeout}
}

func (g *generator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.provider.Generate(ctx, g.model, prompt, maxOutputTokens)
	if err != nil {
		return "", classifyBackendErr(err, nil)
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

const ocrPrompt = `Extract all text visible in this image.
- Preserve the reading order and line breaks.
- Output ONLY the extracted text, with no commentary.
- Output an empty response if the image contains no text.`

// IVisionOCR recognises text in an image through a vision-capable model.
type IVisionOCR interface {
	ExtractImageText(ctx context.Context, mime string, image []byte) (string, error)
}

type visionOCR struct {
	provider IProvider
	model    string
	timeout  time.Duration
}

func NewVisionOCR(p IProvider, model string, timeout time.Duration) IVisionOCR {
	return &visionOCR{provider: p, model: model, timeout: timeout}
}

func (v *visionOCR) ExtractImageText(ctx context.Context, mime string, image []byte) (string, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	resp, err := v.provider.GenerateVision(ctx, v.model, ocrPrompt, mime, image)
	if err != nil {
		return "", classifyBackendErr(err, nil)
	}
	return strings.TrimSpace(resp), nil
}
