package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the bcrypt input limit; longer inputs are silently truncated by bcrypt.
const MaxPasswordLen = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// BcryptVerifier hashes and verifies passwords with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier falls back to bcrypt.DefaultCost for out-of-range costs.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	if len(password) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (v *BcryptVerifier) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
