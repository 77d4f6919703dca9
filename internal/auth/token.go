package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"kinly/internal/storage/fs"
)

const (
	TokenSession = "session"
	TokenConfirm = "confirm"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Sub string `json:"sub"`
	Typ string `json:"typ"`
	Exp int64  `json:"exp"`
	N   string `json:"n,omitempty"`
}

func (c Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// Signer issues and checks `payload.signature` tokens, both halves raw-url
// base64, signature HMAC-SHA256 over the encoded payload.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	return &Signer{secret: append([]byte(nil), secret...), now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	return &Signer{secret: s.secret, now: now}
}

func (s *Signer) Issue(typ, sub string, ttl time.Duration) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", errors.New("token subject required")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	return s.sign(Claims{
		Sub: sub,
		Typ: typ,
		Exp: s.now().Add(ttl).Unix(),
		N:   uuid.NewString(),
	})
}

func (s *Signer) sign(c Claims) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + base64.RawURLEncoding.EncodeToString(s.mac(payload)), nil
}

func (s *Signer) mac(payload string) []byte {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(payload))
	return m.Sum(nil)
}

// Verify checks signature, type and expiry.
func (s *Signer) Verify(typ, token string) (Claims, error) {
	payload, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || payload == "" || sig == "" {
		return Claims{}, ErrTokenInvalid
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(s.mac(payload), got) {
		return Claims{}, ErrTokenInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	var c Claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if c.Typ != typ || strings.TrimSpace(c.Sub) == "" || c.Exp == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if s.now().Unix() > c.Exp {
		return Claims{}, ErrTokenExpired
	}
	return c, nil
}

// LoadOrInitSecret reads the signing secret at path, creating a random one
// when the file is missing or empty.
func LoadOrInitSecret(path string) ([]byte, error) {
	if b, err := os.ReadFile(path); err == nil {
		if secret := strings.TrimSpace(string(b)); secret != "" {
			return []byte(secret), nil
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)
	if err := fs.WriteFileAtomic(path, []byte(secret+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write secret: %w", err)
	}
	return []byte(secret), nil
}
