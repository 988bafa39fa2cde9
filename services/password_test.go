package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/services"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := services.HashPassword("midterm-2026")
	require.NoError(t, err)
	assert.Len(t, strings.Split(hash, "$"), 2)

	other, err := services.HashPassword("midterm-2026")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")

	ok, err := services.VerifyPassword(hash, "midterm-2026")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = services.VerifyPassword(hash, "midterm-2025")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = services.HashPassword("")
	assert.Error(t, err)
}

func TestPasswordHasherCheck(t *testing.T) {
	hash, err := services.HashPassword("open")
	require.NoError(t, err)

	var checker services.PasswordHasher
	assert.True(t, checker.CheckPassword(hash, "open"))
	assert.False(t, checker.CheckPassword(hash, "closed"))
	assert.False(t, checker.CheckPassword("no-separator", "open"))
	assert.False(t, checker.CheckPassword("!!$!!", "open"))
}
