package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIDAcceptsEveryForm(t *testing.T) {
	inputs := []string{
		"https://youtube.com/watch?v=abc12345678",
		"https://www.youtube.com/watch?v=abc12345678&t=30s",
		"https://www.youtube.com/watch?feature=share&v=abc12345678",
		"https://youtu.be/abc12345678",
		"https://youtube.com/embed/abc12345678",
		"https://m.youtube.com/watch?v=abc12345678#t=10",
		"www.youtube.com/watch?v=abc12345678",
		"youtu.be/abc12345678?si=share",
		"abc12345678",
	}

	for _, in := range inputs {
		id, ok := ExtractID(in)
		assert.True(t, ok, in)
		assert.Equal(t, "abc12345678", id, in)
	}
}

func TestExtractIDRejectsNonMatching(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"https://vimeo.com/12345678901",
		"abc123",
		"abc12345678901",
		"https://youtu.be/abc123456789XYZ",
		"https://notyoutube.com/watch?v=abc12345678",
		"https://www.youtube.com/watch?v=abc12345678xyz",
		"https://evil.com/?u=youtube.com/watch?v=abc12345678",
	}

	for _, in := range inputs {
		id, ok := ExtractID(in)
		assert.False(t, ok, in)
		assert.Empty(t, id, in)
		assert.False(t, IsValidURL(in), in)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid video ID.", ErrorMessage(CodeInvalidParam))
	assert.Equal(t, "Video not found or is private.", ErrorMessage(CodeNotFound))
	assert.Equal(t, ErrorMessage(CodeEmbedNotAllowed), ErrorMessage(CodeEmbedNotAllowedAlt))
	assert.Equal(t, genericErrorMessage, ErrorMessage(999))
}
