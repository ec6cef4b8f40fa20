package anubis

import (
	"strings"
	"testing"
)

func TestIntrospectionEndpoint(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://anubis:8081/", "/v1/auth/introspect", "http://anubis:8081/v1/auth/introspect"},
		{"http://anubis:8081", "v1/auth/introspect", "http://anubis:8081/v1/auth/introspect"},
		{"http://anubis:8081", "", "http://anubis:8081"},
		{"http://ignored", "https://auth.example.com/introspect", "https://auth.example.com/introspect"},
	}
	for _, tt := range tests {
		if got := introspectionEndpoint(tt.base, tt.path); got != tt.want {
			t.Fatalf("introspectionEndpoint(%q, %q)=%q want=%q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestPrincipalCacheKeyHidesToken(t *testing.T) {
	key := principalCacheKey("secret-token")
	if strings.Contains(key, "secret-token") {
		t.Fatalf("cache key leaks the token: %q", key)
	}
	if key != principalCacheKey("secret-token") {
		t.Fatalf("cache key must be stable")
	}
}
