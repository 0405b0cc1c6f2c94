package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Callers enforce both bounds before hashing. MinPasswordLength counts
// characters; MaxPasswordBytes is bcrypt's input limit and counts bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// PasswordHasher produces salted bcrypt digests. The salt is embedded in the
// digest, so Verify needs nothing else.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyNothing burns the same CPU as a real Verify. Login calls it when no
// account matches so both failure paths take comparable time.
func (h *PasswordHasher) VerifyNothing(plaintext string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("techxchange-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
