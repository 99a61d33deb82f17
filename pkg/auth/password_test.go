package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Success(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("Welcome123")
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "Welcome123"))
	assert.Error(t, ComparePassword(hash, "welcome123"))
	assert.Error(t, ComparePassword(hash, ""))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
