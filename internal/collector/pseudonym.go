package collector

import (
	"crypto/sha256"
	"encoding/hex"
)

// Pseudonymizer derives stable one-way identifiers from usernames so
// records never store a plain persistent user id, while the same author
// still correlates across posts.
type Pseudonymizer struct {
	salt string
}

// NewPseudonymizer returns a pseudonymizer using the given salt.
func NewPseudonymizer(salt string) *Pseudonymizer {
	return &Pseudonymizer{salt: salt}
}

// Pseudonymize returns the hex SHA-256 digest of username+salt.
func (p *Pseudonymizer) Pseudonymize(username string) string {
	sum := sha256.Sum256([]byte(username + p.salt))
	return hex.EncodeToString(sum[:])
}
