package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct peer", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"untrusted forward ignored", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted forward", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.2"}, "1.2.3.4"},
		{"trusted real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"invalid forward falls back", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "garbage"}, "192.168.1.1"},
		{"no port", "198.51.100.1", nil, "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewIPExtractor()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, e.ClientIP(r))
		})
	}
}

func TestUntrustedForwardCount(t *testing.T) {
	e := NewIPExtractor()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:1"
	r.Header.Set("X-Forwarded-For", "1.1.1.1")
	e.ClientIP(r)
	assert.Equal(t, int64(1), e.UntrustedForwardCount())

	require.Error(t, e.AddTrustedProxy("not-a-cidr"))
	require.NoError(t, e.AddTrustedProxy("203.0.113.0/24"))
	assert.Equal(t, "1.1.1.1", e.ClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
