package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_Argon2(t *testing.T) {
	h := NewPasswordHasher()

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotContains(t, hash, "correct horse")

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("correct horsE", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	h := NewPasswordHasher()

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher()
	assert.True(t, h.Verify("123456", string(legacy)))
	assert.False(t, h.Verify("1234567", string(legacy)))
}

func TestPasswordHasher_Malformed(t *testing.T) {
	h := NewPasswordHasher()

	for _, encoded := range []string{"", "nocolon", "!!:!!", "$2a$short"} {
		assert.False(t, h.Verify("pw", encoded), "encoded %q", encoded)
	}
}
