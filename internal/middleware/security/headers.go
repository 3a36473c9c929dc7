package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds the response headers applied to every API reply.
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CacheControl        string
}

// DefaultHeadersConfig returns defaults for a JSON API that serves no markup.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CacheControl:          "no-store",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	set := func(k, v string) {
		if v != "" {
			header.Set(k, v)
		}
	}
	set("Content-Security-Policy", h.config.CSP)
	set("X-Frame-Options", h.config.XFrameOptions)
	set("X-Content-Type-Options", h.config.XContentTypeOptions)
	set("Referrer-Policy", h.config.ReferrerPolicy)
	set("Cache-Control", h.config.CacheControl)

	// HSTS only makes sense over TLS.
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		v := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			v += "; includeSubDomains"
		}
		header.Set("Strict-Transport-Security", v)
	}
}
