package usecase

// PasswordVerifier compares a plaintext password against a stored one-way hash.
// Compare must run in constant time with respect to the password.
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenGenerator produces opaque, unguessable session tokens.
type TokenGenerator func() (string, error)
