package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoVerifier       = errors.New("assertion key not configured")
	ErrInvalidAssertion = errors.New("invalid assertion")
)

type assertionClaims struct {
	jwt.RegisteredClaims
	Ver   int      `json:"ver"`
	SID   string   `json:"sid"`
	UID   string   `json:"uid"`
	Org   string   `json:"org"`
	Roles []string `json:"roles"`
	Role  string   `json:"role"`
}

func (m *Middleware) canVerify() bool {
	return len(m.hmacSecret) > 0 || m.assertKeyURL != "" || m.getKey() != nil
}

func (m *Middleware) validMethods() []string {
	var out []string
	if m.getKey() != nil {
		out = append(out, jwt.SigningMethodRS256.Alg())
	}
	if len(m.hmacSecret) > 0 {
		out = append(out, jwt.SigningMethodHS256.Alg())
	}
	return out
}

func (m *Middleware) validateAssertion(raw string) (User, error) {
	methods := m.validMethods()
	if len(methods) == 0 {
		return User{}, ErrNoVerifier
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.assertLeeway),
	}
	if m.assertIssuer != "" {
		opts = append(opts, jwt.WithIssuer(m.assertIssuer))
	}
	if m.assertAudience != "" {
		opts = append(opts, jwt.WithAudience(m.assertAudience))
	}

	var claims assertionClaims
	tok, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if pub := m.getKey(); pub != nil {
				return pub, nil
			}
		case *jwt.SigningMethodHMAC:
			if len(m.hmacSecret) > 0 {
				return m.hmacSecret, nil
			}
		}
		return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}
	if !tok.Valid {
		return User{}, ErrInvalidAssertion
	}

	username := first(claims.UID, claims.Subject)
	if username == "" {
		return User{}, fmt.Errorf("%w: missing uid", ErrInvalidAssertion)
	}

	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: "assert"},
		Role:                 Role{Name: first(append([]string{claims.Role}, claims.Roles...)...)},
	}, nil
}
