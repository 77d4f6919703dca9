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

var ErrInvalidHash = errors.New("invalid argon2id hash")

// Params are the argon2id cost settings encoded into every PHC string, so
// hashes made with older settings keep verifying after a change.
type Params struct {
	Memory     uint32
	Iterations uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

var DefaultParams = Params{
	Memory:     64 * 1024,
	Iterations: 3,
	Threads:    1,
	SaltLength: 16,
	KeyLength:  32,
}

type Argon2idHash struct {
	params Params
	salt   []byte
	sum    []byte
}

func HashPassword(password string) (string, error) {
	return DefaultParams.Hash(password)
}

func (p Params) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

func ParseArgon2idHash(phc string) (*Argon2idHash, error) {
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: version", ErrInvalidHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Threads); err != nil {
		return nil, fmt.Errorf("%w: params", ErrInvalidHash)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: params", ErrInvalidHash)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return nil, fmt.Errorf("%w: sum", ErrInvalidHash)
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(sum))
	return &Argon2idHash{params: p, salt: salt, sum: sum}, nil
}

func (h *Argon2idHash) Verify(password string) bool {
	p := h.params
	sum := argon2.IDKey([]byte(password), h.salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	return subtle.ConstantTimeCompare(sum, h.sum) == 1
}

// VerifyPassword checks password against a stored PHC string. A malformed
// hash never verifies.
func VerifyPassword(phc, password string) bool {
	parsed, err := ParseArgon2idHash(phc)
	if err != nil {
		return false
	}
	return parsed.Verify(password)
}
