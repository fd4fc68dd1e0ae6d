package websocket

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckOrigin(t *testing.T) {
	const host = "paste.example.com"

	tests := []struct {
		name          string
		origin        string
		isDevelopment bool
		want          bool
	}{
		{"empty origin", "", false, true},
		{"same host", "https://paste.example.com", false, true},
		{"same host http", "http://paste.example.com", false, true},
		{"same host different case", "https://PASTE.example.com", false, true},

		{"different host", "https://evil.com", false, false},
		{"different port", "https://paste.example.com:9090", false, false},
		{"subdomain", "https://sub.paste.example.com", false, false},
		{"garbage", "::not a url", false, false},
		{"opaque origin", "null", false, false},

		{"localhost dev", "http://localhost:8000", true, true},
		{"127.0.0.1 dev", "http://127.0.0.1:3000", true, true},
		{"ipv6 loopback dev", "http://[::1]:8000", true, true},
		{"localhost prod rejected", "http://localhost:8000", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCheckOrigin(tt.isDevelopment)
			r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ws", nil)
			r.Host = host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checker(r))
		})
	}
}
