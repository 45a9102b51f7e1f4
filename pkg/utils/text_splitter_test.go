package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 512, 50)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 20) // 200 runes

	chunks := SplitText(text, 100, 20)

	assert.Greater(t, len(chunks), 1)
	for i := 0; i < len(chunks)-1; i++ {
		assert.Len(t, []rune(chunks[i]), 100)
		// Consecutive chunks share the overlap region.
		tail := string([]rune(chunks[i])[80:])
		assert.True(t, strings.HasPrefix(chunks[i+1], tail))
	}
}

func TestSplitTextOverlapAtLeastChunkSize(t *testing.T) {
	text := strings.Repeat("x", 30)

	// Degenerate config must still advance instead of looping.
	chunks := SplitText(text, 10, 10)

	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}
