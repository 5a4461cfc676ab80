package admin

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotConfigured   = errors.New("admin password is not configured")
	ErrInvalidPassword = errors.New("invalid password")
)

// Password checks the admin password against a bcrypt hash, or against a
// plain value when no hash is configured.
type Password struct {
	hash  []byte
	plain []byte
}

func NewPassword(hash, plain string) *Password {
	p := &Password{}
	if h := strings.TrimSpace(hash); h != "" {
		p.hash = []byte(h)
	}
	if plain != "" {
		p.plain = []byte(plain)
	}
	return p
}

func (p *Password) Configured() bool {
	return len(p.hash) > 0 || len(p.plain) > 0
}

func (p *Password) Verify(password string) error {
	switch {
	case len(p.hash) > 0:
		if bcrypt.CompareHashAndPassword(p.hash, []byte(password)) != nil {
			return ErrInvalidPassword
		}
		return nil
	case len(p.plain) > 0:
		if subtle.ConstantTimeCompare(p.plain, []byte(password)) != 1 {
			return ErrInvalidPassword
		}
		return nil
	default:
		return ErrNotConfigured
	}
}

// HashPassword returns a bcrypt hash suitable for admin.pass_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
