package simplemedia_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

func TestContentHash(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "known value",
			data:     []byte("hello"),
			expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:     "empty input",
			data:     []byte{},
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, simplemedia.ContentHash(tt.data))
		})
	}
}

func TestContentHashDeterministic(t *testing.T) {
	data := []byte("the same bytes always address the same content")
	assert.Equal(t, simplemedia.ContentHash(data), simplemedia.ContentHash(data))
	assert.Len(t, simplemedia.ContentHash(data), 64)
	assert.NotEqual(t, simplemedia.ContentHash(data), simplemedia.ContentHash([]byte("different bytes")))
}
