// Package cryptox derives keys from secrets and checks secrets against
// stored verifiers without keeping the secret itself.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt used by NewVerifier.
const SaltSize = 16

func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// DeriveKey stretches secret with argon2id into a 32-byte key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Verifier remembers a secret as salt + sha256(argon2id(secret, salt)).
type Verifier struct {
	salt []byte
	hash []byte
}

func NewVerifier(secret []byte) *Verifier {
	salt := common.GenerateRandByteArray(SaltSize)
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	return &Verifier{salt: salt, hash: MakeVerifier(key)}
}

// Matches reports whether secret is the one the verifier was built from.
func (v *Verifier) Matches(secret []byte) bool {
	key := DeriveKey(secret, v.salt)
	defer common.WipeByteArray(key)

	return subtle.ConstantTimeCompare(MakeVerifier(key), v.hash) == 1
}
