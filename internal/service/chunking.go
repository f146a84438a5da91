package service

import "strings"

// ChunkConfig controls how documents are split before embedding. Size and
// Overlap are measured in whitespace-delimited tokens.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    500,
		Overlap: 50,
	}
}

// ChunkText splits text into overlapping token windows. Adjacent chunks
// share Overlap tokens so answers spanning a boundary stay retrievable.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(tokens)/cfg.Size+1)
	start := 0
	for start < len(tokens) {
		end := start + cfg.Size
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, strings.Join(tokens[start:end], " "))

		if end >= len(tokens) {
			break
		}

		next := end - cfg.Overlap
		// The window must always advance, even with a degenerate overlap.
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
