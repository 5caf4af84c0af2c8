package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_NotPlaintext(t *testing.T) {
	h, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", h)

	other, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, h, other, "hashes must be salted")
}

func TestCheckPassword(t *testing.T) {
	h, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.True(t, CheckPassword(h, "pw1"))
	assert.False(t, CheckPassword(h, "pw2"))
	assert.False(t, CheckPassword("not-a-hash", "pw1"))
}

func TestBurnCompare_DoesNotPanic(t *testing.T) {
	BurnCompare("anything")
	BurnCompare("")
}
