package ports

import "github.com/malina/auth-service/internal/core/domain"

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns false for a mismatch and for a malformed hash.
	Verify(plaintext, hash string) bool
}

// TokenCodec mints and validates bearer tokens.
type TokenCodec interface {
	Issue(user *domain.User) (string, error)
	// Validate returns an error wrapping domain.ErrInvalidToken when the
	// token is malformed, forged or expired.
	Validate(token string) (*domain.Principal, error)
}
