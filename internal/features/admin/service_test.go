package admin

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/argon2"
)

// encodeHash produces the $argon2id$... form generate_hash.go prints.
func encodeHash(password string, salt []byte) string {
	var (
		memory      uint32 = 65536
		iterations  uint32 = 3
		parallelism uint8  = 2
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeHash("hunter2", salt)

	assert.True(t, verifyArgon2id("hunter2", encoded))
	assert.False(t, verifyArgon2id("hunter3", encoded))
	assert.False(t, verifyArgon2id("", encoded))
}

func TestVerifyArgon2id_Malformed(t *testing.T) {
	tests := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=3,p=2$onlyonepart",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!notbase64!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$!!notbase64!!",
	}
	for _, encoded := range tests {
		assert.False(t, verifyArgon2id("hunter2", encoded), "hash %q", encoded)
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a := generateSessionToken()
	b := generateSessionToken()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
