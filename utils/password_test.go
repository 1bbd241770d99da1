package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	t.Run("Should verify only the original plaintext", func(t *testing.T) {
		hash, err := HashPassword("secret1")
		require.NoError(t, err)
		assert.NotContains(t, hash, "secret1")
		assert.True(t, CheckPassword(hash, "secret1"))
		assert.False(t, CheckPassword(hash, "secret2"))
	})

	t.Run("Should salt every hash", func(t *testing.T) {
		a, err := HashPassword("same")
		require.NoError(t, err)
		b, err := HashPassword("same")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("Should treat a malformed hash as a mismatch", func(t *testing.T) {
		assert.False(t, CheckPassword("not-a-hash", "secret1"))
		assert.False(t, CheckPassword("", ""))
	})

	t.Run("Should refuse plaintexts longer than bcrypt accepts", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}
