package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("pw123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "pw123", hash)

	assert.True(t, Verify(hash, "pw123"))
	assert.False(t, Verify(hash, "pw124"))
	assert.False(t, Verify(hash, ""))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := Hash("same-password")
	require.NoError(t, err)
	h2, err := Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, Verify(h1, "same-password"))
	assert.True(t, Verify(h2, "same-password"))
}

func TestVerifyMalformedHash(t *testing.T) {
	assert.False(t, Verify("", "pw123"))
	assert.False(t, Verify("not-a-bcrypt-hash", "pw123"))
	assert.False(t, Verify("$2a$garbage", "pw123"))
}
