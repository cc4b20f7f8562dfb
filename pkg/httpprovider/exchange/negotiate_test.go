package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccepts(t *testing.T) {
	tests := []struct {
		name   string
		header string
		offers []string
		want   string
		ok     bool
	}{
		{"no header picks first", "", []string{"json", "html"}, "json", true},
		{"shorthand", "application/json", []string{"html", "json"}, "json", true},
		{"quality order", "text/html;q=0.5, application/json", []string{"text/html", "application/json"}, "application/json", true},
		{"wildcard subtype", "text/*", []string{"application/json", "text/plain"}, "text/plain", true},
		{"refused", "application/json;q=0", []string{"json"}, "", false},
		{"no match", "image/png", []string{"json"}, "", false},
		{"no offers", "text/html", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Accepts(tt.header, tt.offers...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAcceptsLanguages(t *testing.T) {
	got, ok := AcceptsLanguages("fr-CH, fr;q=0.9, en;q=0.8", "en", "fr")
	assert.True(t, ok)
	assert.Equal(t, "fr", got)

	got, ok = AcceptsLanguages("", "es", "en")
	assert.True(t, ok)
	assert.Equal(t, "es", got)
}

func TestAcceptsCharsetsAndEncodings(t *testing.T) {
	got, ok := AcceptsCharsets("iso-8859-1;q=0.5, utf-8", "iso-8859-1", "UTF-8")
	assert.True(t, ok)
	assert.Equal(t, "UTF-8", got)

	_, ok = AcceptsCharsets("utf-8", "latin1")
	assert.False(t, ok)

	got, ok = AcceptsEncodings("gzip, deflate", "br", "identity")
	assert.True(t, ok)
	assert.Equal(t, "identity", got)

	_, ok = AcceptsEncodings("gzip, identity;q=0", "identity")
	assert.False(t, ok)

	got, ok = AcceptsEncodings("gzip;q=0.2, br", "gzip", "br")
	assert.True(t, ok)
	assert.Equal(t, "br", got)
}

func TestIs(t *testing.T) {
	got, ok := Is("application/json; charset=utf-8", "html", "json")
	assert.True(t, ok)
	assert.Equal(t, "json", got)

	got, ok = Is("application/vnd.api+json", "+json")
	assert.True(t, ok)
	assert.Equal(t, "+json", got)

	_, ok = Is("text/plain", "application/*")
	assert.False(t, ok)

	_, ok = Is("", "json")
	assert.False(t, ok)
}
