package evaluator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", 100, 10))
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := ChunkText("short document", 100, 10)
	assert.Equal(t, []string{"short document"}, chunks)
}

func TestChunkText_SplitsWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := ChunkText(text, 100, 20)

	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	// Each successive chunk starts 80 characters after the previous one.
	assert.Equal(t, 250-2*80, len(chunks[2]))
}

func TestChunkText_PrefersNewlineBreak(t *testing.T) {
	text := strings.Repeat("x", 80) + "\n" + strings.Repeat("y", 80)
	chunks := ChunkText(text, 100, 0)

	assert.True(t, strings.HasSuffix(chunks[0], "\n"))
	assert.True(t, strings.HasPrefix(chunks[1], "y"))
}

func TestChunkText_CoversWholeText(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks := ChunkText(text, 200, 50)

	assert.True(t, strings.HasPrefix(text, chunks[0]))
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))
}

func TestChunkText_KeepsRunesIntact(t *testing.T) {
	// Two-byte runes with an odd chunk size put every cut mid-rune unless
	// the boundary snaps back.
	text := strings.Repeat("é", 100)
	chunks := ChunkText(text, 33, 5)

	assert.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d", i)
	}
}

func TestChunkText_MultiByteCoversWholeText(t *testing.T) {
	text := strings.Repeat("公開入札の評価 ", 40)
	chunks := ChunkText(text, 50, 0)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d", i)
	}
}

func TestBoundedText_TruncatesAtLimit(t *testing.T) {
	got := boundedText([]string{"abcdef", "ghijkl"}, 8)
	assert.Equal(t, "abcdef g", got)
}

func TestBoundedText_TruncatesOnRuneBoundary(t *testing.T) {
	got := boundedText([]string{strings.Repeat("é", 10)}, 5)
	assert.Equal(t, "éé", got)
	assert.True(t, utf8.ValidString(got))
}

func TestBoundedText_NoLimit(t *testing.T) {
	got := boundedText([]string{"a", "b"}, 0)
	assert.Equal(t, "a b", got)
}
