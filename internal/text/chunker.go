// Package text splits raw documents into overlapping chunks sized for
// embedding.
package text

import (
	"strings"
	"unicode/utf8"
)

// separators, strongest boundary first. A chunk prefers to end right
// after a blank line, then a line break, then a sentence end, then a
// clause, then a word.
var separators = []string{"\n\n", "\n", ".", "!", "?", ",", " "}

// Chunk splits text into windows of at most size bytes, where each
// window after the first re-reads up to overlap bytes of its
// predecessor. Chunks are raw substrings of the input: nothing is
// trimmed or rewritten, so stitching them back together (minus the
// overlaps) yields the original text exactly.
//
// The result is deterministic. Empty input yields no chunks; input
// that fits in a single window yields one chunk.
func Chunk(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := cutPoint(text, start, end)
		chunks = append(chunks, text[start:cut])

		next := cut - overlap
		if next <= start {
			// The chunk was shorter than the overlap. Skip the
			// overlap rather than loop over the same window.
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint picks where to end the chunk covering text[start:end), for
// a window that does not reach the end of the input. It scans the
// window for the strongest separator present and cuts just after its
// last occurrence, so the separator stays attached to the chunk it
// closes. With no separator in the window the cut is the window edge,
// nudged back off any multi-byte rune it would split.
func cutPoint(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		// i > 0 so a window that merely starts with a separator does
		// not shrink to a separator-only chunk.
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
