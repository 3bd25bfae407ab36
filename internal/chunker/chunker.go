package chunker

import (
	"docchat/internal/domain"
)

// Splitter cuts documents into overlapping chunks of at most maxChunkSize
// runes. Consecutive chunks share exactly overlapSize runes: the next chunk
// always starts at the previous chunk's end minus the overlap, so the
// suffix/prefix relation holds no matter where the boundary falls.
type Splitter struct {
	maxChunkSize int
	overlapSize  int
}

// New validates the size/overlap pair. The overlap must be non-negative and
// strictly smaller than the chunk size or splitting could never advance.
func New(maxChunkSize, overlapSize int) (*Splitter, error) {
	if maxChunkSize <= 0 {
		return nil, domain.NewConfigError("chunker.max_chunk_size", "must be positive")
	}
	if overlapSize < 0 || overlapSize >= maxChunkSize {
		return nil, domain.NewConfigError("chunker.overlap_size", "must satisfy 0 <= overlap < max_chunk_size")
	}
	return &Splitter{maxChunkSize: maxChunkSize, overlapSize: overlapSize}, nil
}

// Split produces the chunk sequence for one document. Deterministic: the
// same document and settings always yield the same chunks. The final chunk
// may be shorter than maxChunkSize.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}
	var chunks []domain.Chunk
	start := 0
	for {
		end := start + s.maxChunkSize
		if end >= len(runes) {
			chunks = append(chunks, domain.Chunk{
				SourceID:     doc.ID,
				Text:         string(runes[start:]),
				SourceOffset: start,
			})
			break
		}
		// Prefer a natural boundary, but never cut so early that the next
		// chunk would not advance past the current start.
		if cut := softBoundary(runes, start+s.overlapSize+1, end); cut > 0 {
			end = cut
		}
		chunks = append(chunks, domain.Chunk{
			SourceID:     doc.ID,
			Text:         string(runes[start:end]),
			SourceOffset: start,
		})
		start = end - s.overlapSize
	}
	return chunks
}

// softBoundary scans (min, end] backwards for the best breakpoint: paragraph
// break, then line break, then sentence end, then word gap. Returns the rune
// index to cut at, or 0 when no boundary exists in the window.
func softBoundary(runes []rune, min, end int) int {
	var lineCut, sentenceCut, wordCut int
	for i := end - 1; i >= min; i-- {
		switch runes[i] {
		case '\n':
			if i > 0 && runes[i-1] == '\n' {
				return i + 1 // paragraph break wins outright
			}
			if lineCut == 0 {
				lineCut = i + 1
			}
		case '.', '!', '?':
			if sentenceCut == 0 && i+1 < len(runes) && isSpace(runes[i+1]) {
				sentenceCut = i + 1
			}
		case ' ', '\t':
			if wordCut == 0 {
				wordCut = i + 1
			}
		}
	}
	if lineCut > 0 {
		return lineCut
	}
	if sentenceCut > 0 {
		return sentenceCut
	}
	return wordCut
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
