package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "short", truncateBody("short", 100))

	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, truncateBody(exact, 100))

	long := strings.Repeat("b", 150)
	assert.Equal(t, strings.Repeat("b", 100)+"...", truncateBody(long, 100))

	// Multi-byte content must be cut on a rune boundary, never inside
	// an encoded character.
	multibyte := strings.Repeat("héllo", 30)
	got := truncateBody(multibyte, 100)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 103, utf8.RuneCountInString(got))
	assert.Equal(t, string([]rune(multibyte)[:100])+"...", got)
}
