package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifierRoundTrip(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)

	hash, err := v.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, v.Compare(hash, "correct horse"))
	assert.ErrorIs(t, v.Compare(hash, "wrong"), bcrypt.ErrMismatchedHashAndPassword)
	assert.Error(t, v.Compare("not-a-hash", "correct horse"))
}

func TestBcryptVerifierRejectsLongPasswords(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)

	_, err := v.Hash(strings.Repeat("a", MaxPasswordLen+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptVerifierDefaultsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptVerifier(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptVerifier(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptVerifier(bcrypt.MinCost).cost)
}
