package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedPasswordHash reports a stored credential that does not parse
// as a PHC-formatted argon2id string.
var ErrMalformedPasswordHash = errors.New("malformed password hash")

// argon2id costs for newly stored credentials. Verification reads the costs
// back from the stored string, so raising these later does not invalidate
// hashes already in the database.
const (
	argonMemoryKiB = 19 * 1024
	argonPasses    = 2
	argonLanes     = 1
	argonSaltLen   = 16
	argonKeyLen    = 32
)

// HashPassword derives an argon2id key from the password and encodes it as a
// PHC string: $argon2id$v=19$m=...,t=...,p=...$salt$key.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonPasses, argonMemoryKiB, argonLanes, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKiB, argonPasses, argonLanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword compares a candidate password against a stored PHC string.
// A mismatch returns ErrInvalidCredentials, the same error the login path
// uses for an unknown account, so callers stay opaque about which part was
// wrong.
func VerifyPassword(stored, password string) error {
	fields := strings.Split(stored, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return ErrMalformedPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return ErrMalformedPasswordHash
	}

	var (
		memory uint32
		passes uint32
		lanes  uint8
	)
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &memory, &passes, &lanes); err != nil {
		return ErrMalformedPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return ErrMalformedPasswordHash
	}
	want, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		return ErrMalformedPasswordHash
	}

	got := argon2.IDKey([]byte(password), salt, passes, memory, lanes, uint32(len(want)))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
