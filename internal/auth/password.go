package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on
// current server hardware: negligible per login, expensive per brute-force
// guess. Tune so hashing stays in the 200-300ms range.
const defaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
//
// bcrypt generates a random salt per hash and embeds it (plus the cost) in
// the output string, so the stored hash is self-contained; no separate salt
// column. Two users with the same password get different hashes.
//
// It's a struct rather than free functions so the cost can be lowered in
// tests; cost 12 per hash makes a test suite crawl.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. bcrypt.MinCost (4) keeps tests fast. Never use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. The result is stored directly in the
// database; Verify knows how to decode it.
//
// bcrypt silently truncates input beyond 72 bytes, so we reject longer
// passwords explicitly rather than surprise the caller.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. Returns nil on
// match. The comparison inside bcrypt is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
