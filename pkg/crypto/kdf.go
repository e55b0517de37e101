package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash indicates an encoded hash string that does not parse.
var ErrInvalidHash = errors.New("crypto: invalid encoded hash format")

// HashPassword produces an encoded Argon2id verification hash in the
// standard $argon2id$v=...$m=...,t=...,p=...$salt$digest format.
//
// The salt is caller-supplied so that the same salt can back both the
// verification hash and a separately derived encryption key. The hash is
// used only for password verification and never as key material.
func HashPassword(password string, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", fmt.Errorf("crypto: empty salt")
	}

	digest := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Digest := base64.RawStdEncoding.EncodeToString(digest)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Threads, b64Salt, b64Digest)

	return encoded, nil
}

// VerifyPassword checks a password against an encoded Argon2id hash.
// A malformed hash and a wrong password both return false.
func VerifyPassword(password, encodedHash string) bool {
	salt, digest, time, memory, threads, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(computed, digest) == 1
}

// decodeHash parses an encoded Argon2id hash into its components.
func decodeHash(encodedHash string) (salt, digest []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	return salt, digest, time, memory, threads, nil
}
