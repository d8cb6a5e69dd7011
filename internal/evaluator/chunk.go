package evaluator

import (
	"strings"
	"unicode/utf8"
)

// ChunkText splits text into overlapping chunks, preferring to break at a
// newline or space past the midpoint of each chunk. Cuts never split a
// multi-byte rune.
func ChunkText(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeStart(text, end)
			if nl := strings.LastIndex(text[start:end], "\n"); nl != -1 && nl > chunkSize/2 {
				end = start + nl + 1
			} else if sp := strings.LastIndex(text[start:end], " "); sp != -1 && sp > chunkSize/2 {
				end = start + sp + 1
			}
		}
		if end <= start {
			// a single rune wider than chunkSize still has to advance
			_, n := utf8.DecodeRuneInString(text[start:])
			end = start + n
		}

		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = runeStart(text, end-overlap)
	}
	return chunks
}

// boundedText joins chunks with a single space and truncates to limit
// characters. The fixed-prefix truncation keeps per-item gateway calls
// deterministic for the same extracted document.
func boundedText(chunks []string, limit int) string {
	joined := strings.Join(chunks, " ")
	if limit > 0 && len(joined) > limit {
		return joined[:runeStart(joined, limit)]
	}
	return joined
}

// runeStart walks i back to the start of the rune it falls inside.
func runeStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
