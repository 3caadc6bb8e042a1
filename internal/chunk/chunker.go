package chunk

import (
	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

type Config struct {
	MaxChars     int
	OverlapChars int
}

// Split cuts text into windows of at most MaxChars runes, each overlapping
// the previous one by OverlapChars runes. The window advances by
// MaxChars-OverlapChars, so for text longer than one window the chunk count
// is ceil((len-overlap)/(max-overlap)). The final window may be shorter and
// the loop stops once it reaches the end of the text, so no degenerate
// tail chunk is produced.
func Split(text string, cfg Config) ([]model.Chunk, error) {
	if cfg.MaxChars <= 0 {
		return nil, appErr.ErrInvalidChunkConfig
	}
	if cfg.OverlapChars < 0 || cfg.OverlapChars >= cfg.MaxChars {
		return nil, appErr.ErrInvalidChunkConfig
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []model.Chunk{}, nil
	}
	step := cfg.MaxChars - cfg.OverlapChars
	chunks := make([]model.Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, model.Chunk{
			Seq:   len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
		start = end - cfg.OverlapChars
	}
	return chunks, nil
}
