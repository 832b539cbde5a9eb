package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret12")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, CheckPassword(hash, "secret12"))
	assert.False(t, CheckPassword(hash, "secret13"))
	assert.False(t, CheckPassword("not-a-hash", "secret12"))
}
