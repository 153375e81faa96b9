// Package cryptox derives login credentials. The password never leaves the
// client: it is stretched with argon2id into a master key, and only a SHA-256
// verifier of that key is sent to (and stored by) the server.
package cryptox

import (
	"crypto/sha256"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of per-user salts in bytes.
const SaltSize = 32

// NewSalt returns a fresh random salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// DeriveMasterKey stretches password with salt using argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value the server compares on login.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// Verifier derives the verifier for password and salt and wipes the
// intermediate master key.
func Verifier(password []byte, salt []byte) []byte {
	key := DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}
