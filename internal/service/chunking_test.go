package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenDoc(n int) string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%d", i)
	}
	return strings.Join(tokens, " ")
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", DefaultChunkConfig()))
	assert.Nil(t, ChunkText("   \n\t  ", DefaultChunkConfig()))
}

func TestChunkText_SingleChunk(t *testing.T) {
	chunks := ChunkText(tokenDoc(100), DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, 100, len(strings.Fields(chunks[0])))
}

func TestChunkText_OverlappingWindows(t *testing.T) {
	chunks := ChunkText(tokenDoc(1200), DefaultChunkConfig())
	require.Len(t, chunks, 3)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])

	assert.Len(t, first, 500)
	assert.Len(t, second, 500)
	// The second window starts 50 tokens before the first ends.
	assert.Equal(t, "t450", second[0])
	assert.Equal(t, first[450:], second[:50])
}

func TestChunkText_TailChunk(t *testing.T) {
	chunks := ChunkText(tokenDoc(520), DefaultChunkConfig())
	require.Len(t, chunks, 2)
	assert.Equal(t, 70, len(strings.Fields(chunks[1])))
}

func TestChunkText_DegenerateOverlapStillAdvances(t *testing.T) {
	cfg := ChunkConfig{Size: 10, Overlap: 10}
	chunks := ChunkText(tokenDoc(30), cfg)

	// Overlap equal to size would otherwise never move the window.
	require.Len(t, chunks, 3)
	assert.Equal(t, "t10", strings.Fields(chunks[1])[0])
}

func TestChunkText_NormalizesWhitespace(t *testing.T) {
	chunks := ChunkText("один   два\n\nтри\tчетыре", DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "один два три четыре", chunks[0])
}
