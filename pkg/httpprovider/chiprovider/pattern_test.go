package chiprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		uri      string
		pattern  string
		wildcard string
	}{
		{"/hello", "/hello", ""},
		{"/users/:id", "/users/{id}", ""},
		{"/users/:id/posts/:postId", "/users/{id}/posts/{postId}", ""},
		{"/static/*", "/static/*", ""},
		{"/files/*path", "/files/*", "path"},
		{"/", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			pattern, wildcard := translatePattern(tt.uri)
			assert.Equal(t, tt.pattern, pattern)
			assert.Equal(t, tt.wildcard, wildcard)
		})
	}
}
