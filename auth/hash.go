package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// 3 passes over 32 MB with 4 lanes, a reasonable interactive
	// login budget on the small machines this is meant to run on.
	hashTime    = 3
	hashMemory  = 32 * 1024
	hashThreads = 4
	hashKeyLen  = 32
	saltLen     = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an Argon2id key from plaintext under a fresh
// random salt and returns it encoded with its parameters:
//
//	$argon2id$v=19$m=32768,t=3,p=4$<salt>$<key>
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	_, err := rand.Read(salt)
	if err != nil {
		return "", fmt.Errorf("unable to generate salt, cause %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, hashTime, hashMemory, hashThreads, hashKeyLen)
	return fmt.Sprintf("$argon2id$v=%v$m=%v,t=%v,p=%v$%v$%v",
		argon2.Version, hashMemory, hashTime, hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword reports whether plaintext derives the stored hash,
// using the parameters recorded in the hash itself. Malformed input
// simply does not verify.
func VerifyPassword(plaintext, encoded string) bool {
	salt, key, time, memory, threads, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	derived := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1
}

func decodeHash(encoded string) (salt, key []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		err = errMalformedHash
		return
	}
	var version int
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil || version != argon2.Version {
		err = errMalformedHash
		return
	}
	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		err = errMalformedHash
		return
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		err = errMalformedHash
		return
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		err = errMalformedHash
		return
	}
	return
}
