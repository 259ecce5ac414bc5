package chunking

import (
	"errors"
	"strings"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

// Splitter cuts text into fixed-size windows with overlap, preferring to
// break on a sentence boundary when one falls in the second half of the
// window.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(
			domain.ErrConfiguration,
			"new splitter",
			errors.New("overlap must be smaller than chunk size"),
		)
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

func (s *Splitter) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= s.ChunkSize {
		chunk := strings.TrimSpace(text)
		if chunk == "" {
			return nil, nil
		}
		return []string{chunk}, nil
	}

	out := make([]string, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.breakPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		// A sentence break just past the window midpoint can land inside the
		// overlap when Overlap > ChunkSize/2; the scan must still advance.
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out, nil
}

// breakPoint searches backward from end for a sentence boundary and uses it
// only when it sits past the midpoint of the window, so chunks never shrink
// below half the configured size.
func (s *Splitter) breakPoint(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] != '.' && runes[i] != '\n' {
			continue
		}
		if (i+1-start)*2 > s.ChunkSize {
			return i + 1
		}
		break
	}
	return end
}
