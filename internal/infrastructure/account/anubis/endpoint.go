package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// introspectionEndpoint resolves path against baseURL. An absolute path is
// used as is.
func introspectionEndpoint(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// principalCacheKey keeps raw bearer tokens out of the principal cache.
func principalCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "principal:" + hex.EncodeToString(sum[:])
}

// countsAgainstBreaker is true only for transport failures and 5xx answers.
// Rejected tokens are caller errors and leave the breaker alone.
func countsAgainstBreaker(err error) bool {
	return errors.Is(err, errAnubisTransient)
}
