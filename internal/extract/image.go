package extract

import (
	"context"
	"net/http"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// VisionOCR is the slice of the AI layer image extraction needs: hand over
// the bytes, get the recognised text back.
type VisionOCR interface {
	ExtractImageText(ctx context.Context, mime string, image []byte) (string, error)
}

// Image recognises text in bitmap payloads through a vision-capable
// generation model. Backend failures keep their classification (rate limit,
// timeout) so the pipeline can tell transient trouble from a bad payload.
type Image struct {
	ocr VisionOCR
}

func NewImage(ocr VisionOCR) *Image {
	return &Image{ocr: ocr}
}

func (e *Image) Formats() []string {
	return []string{"png", "jpg", "gif", "bmp", "webp"}
}

func (e *Image) Extract(ctx context.Context, data []byte) (string, error) {
	mime := http.DetectContentType(data)
	text, err := e.ocr.ExtractImageText(ctx, mime, data)
	if err != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Debug("image ocr finished", zap.String("mime", mime), zap.Int("chars", len(text)))
	return text, nil
}
