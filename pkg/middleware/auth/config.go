package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
)

// Config holds the verification settings. Zero values disable the
// corresponding source.
type Config struct {
	Header        string
	AssertCookie  string
	KeyURL        string
	KeyKID        string
	PublicKey     *rsa.PublicKey
	HMACSecret    []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	AdminRole     string
	DevBypass     bool
	SessionAPI    string
	SessionCookie string
}

// ConfigFromManifest resolves the [auth] section. Environment variables
// override the manifest.
func ConfigFromManifest(a manifest.Auth) (Config, error) {
	cfg := Config{
		Header:        a.Header,
		AssertCookie:  envOr("ASSERTION_COOKIE_NAME", a.Cookie),
		KeyURL:        envOr("ASSERTION_KEY_URL", a.KeyURL),
		KeyKID:        envOr("ASSERTION_KEY_KID", a.KeyKID),
		Issuer:        envOr("ASSERTION_ISSUER", a.Issuer),
		Audience:      envOr("ASSERTION_AUDIENCE", a.Audience),
		Leeway:        60 * time.Second,
		AdminRole:     envOr("ADMIN_ROLE_NAME", a.AdminRole),
		DevBypass:     a.DevBypass || os.Getenv("AUTH_DEV_BYPASS") == "true",
		SessionAPI:    envOr("SESSION_STATE_API", a.SessionAPI),
		SessionCookie: envOr("SESSION_COOKIE_NAME", a.SessionCookie),
	}
	if a.LeewaySeconds > 0 {
		cfg.Leeway = time.Duration(a.LeewaySeconds) * time.Second
	}
	if v := envOr("ASSERTION_LEEWAY_SECONDS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("ASSERTION_LEEWAY_SECONDS %q invalid", v)
		}
		cfg.Leeway = time.Duration(n) * time.Second
	}
	if a.HMACSecretEnv != "" {
		cfg.HMACSecret = []byte(os.Getenv(a.HMACSecretEnv))
	}
	if f := envOr("ASSERTION_PUBLIC_KEY_FILE", a.PublicKeyFile); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return Config{}, fmt.Errorf("read public key: %w", err)
		}
		if cfg.PublicKey, err = parsePublicKeyPEM(b); err != nil {
			return Config{}, fmt.Errorf("public key %s: %w", f, err)
		}
	}
	return cfg, nil
}

func parsePublicKeyPEM(b []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rk, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("PEM is not RSA public key")
	}
	return rk, nil
}
