package httpprovider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethod_Supported(t *testing.T) {
	for _, m := range SupportedMethods {
		assert.True(t, m.Supported(), "%s should be supported", m)
	}

	unsupported := []Method{MethodHead, "RANDOM", "RANDOM2", "get", "Post", ""}
	for _, m := range unsupported {
		assert.False(t, m.Supported(), "%q should not be supported", m)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("PATCH")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)

	_, err = ParseMethod("HEAD")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	assert.Contains(t, err.Error(), "HEAD")
}
