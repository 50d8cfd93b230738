package auth

import (
	"encoding/base64"
	"os"
	"strings"
)

func first(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func b64url(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// RSA exponent from its big-endian bytes; empty means the common 65537.
func bytesToInt(b []byte) int {
	n := 0
	for _, v := range b {
		n = n<<8 | int(v)
	}
	if n == 0 {
		return 65537
	}
	return n
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
