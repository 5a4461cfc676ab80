package admin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const adminRole = "admin"

type TokenMaker struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "spicekart-admin",
		now:    time.Now,
	}
}

// Claims identify one admin session; ID (jti) is the key in the session
// registry so a session can be revoked before it expires.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(ttl time.Duration) (string, Claims, error) {
	now := t.now()

	claims := Claims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "s_" + uuid.NewString(),
			Subject:   adminRole,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now))
	if err != nil || token == nil || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.Role != adminRole || c.ID == "" {
		return Claims{}, errors.New("invalid claims")
	}

	return c, nil
}
