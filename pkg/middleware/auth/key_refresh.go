package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Start fetches the remote key once and keeps it fresh until ctx is done.
// It is a no-op without a key URL.
func (m *Middleware) Start(ctx context.Context) error {
	if m.assertKeyURL == "" {
		return nil
	}
	if err := m.refreshAssertionKey(ctx); err != nil {
		m.log.Warn("assertion key fetch failed", zap.String("url", m.assertKeyURL), zap.Error(err))
	}
	go m.backgroundRefresh(ctx)
	return nil
}

func (m *Middleware) backgroundRefresh(ctx context.Context) {
	for {
		sleep := m.getCacheTTL()
		if sleep < 5*time.Second {
			sleep = 5 * time.Second
		}
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		if err := m.refreshAssertionKey(ctx); err != nil && ctx.Err() == nil {
			m.log.Warn("assertion key refresh failed", zap.Error(err))
		}
	}
}

func (m *Middleware) refreshAssertionKey(ctx context.Context) error {
	if m.assertKeyURL == "" {
		return errors.New("key url not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.assertKeyURL, nil)
	if err != nil {
		return err
	}
	if etag := m.getETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("Accept", "*/*")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// Honor 304 with previous key
	if res.StatusCode == http.StatusNotModified && m.getKey() != nil {
		m.updateCacheTTLFromHeaders(res)
		m.setLastFetch(time.Now())
		return nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("key fetch %s: %s", m.assertKeyURL, res.Status)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	var pub *rsa.PublicKey
	ct := strings.ToLower(res.Header.Get("Content-Type"))
	if strings.Contains(ct, "json") || strings.HasSuffix(strings.ToLower(m.assertKeyURL), ".json") {
		pub, err = parseJWKS(b, m.assertKeyKID)
	} else {
		pub, err = parsePublicKeyPEM(b)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.assertKey = pub
	m.assertETag = res.Header.Get("ETag")
	m.updateCacheTTLFromHeadersLocked(res)
	m.lastFetch = time.Now()
	m.mu.Unlock()
	return nil
}

func (m *Middleware) updateCacheTTLFromHeaders(res *http.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCacheTTLFromHeadersLocked(res)
}

func (m *Middleware) updateCacheTTLFromHeadersLocked(res *http.Response) {
	cc := res.Header.Get("Cache-Control")
	if cc == "" {
		return
	}
	parts := strings.Split(cc, ",")
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if strings.HasPrefix(p, "max-age=") {
			if s, err := strconv.Atoi(strings.TrimPrefix(p, "max-age=")); err == nil && s >= 5 {
				m.cacheTTL = time.Duration(s) * time.Second
				return
			}
		}
	}
}

func (m *Middleware) getKey() *rsa.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assertKey
}

func (m *Middleware) getETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assertETag
}

func (m *Middleware) getCacheTTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cacheTTL
}

func (m *Middleware) setLastFetch(t time.Time) {
	m.mu.Lock()
	m.lastFetch = t
	m.mu.Unlock()
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// parseJWKS picks the key with the given kid, or the first RSA signing key
// when kid is empty.
func parseJWKS(b []byte, kid string) (*rsa.PublicKey, error) {
	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, err
	}
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		if kid != "" && k.Kid != kid {
			continue
		}
		if kid == "" && !(k.Use == "" || k.Use == "sig") {
			continue
		}
		if kid == "" && !(k.Alg == "" || strings.EqualFold(k.Alg, "RS256")) {
			continue
		}
		return k.publicKey()
	}
	return nil, errors.New("no suitable RSA key in JWKS")
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := b64url(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad jwks.n: %w", err)
	}
	e, err := b64url(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad jwks.e: %w", err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: bytesToInt(e)}, nil
}

// LastKeyFetch reports when the remote key was last fetched or revalidated.
func (m *Middleware) LastKeyFetch() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFetch
}
