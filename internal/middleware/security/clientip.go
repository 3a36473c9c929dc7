package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// IPExtractor resolves the client address of a request, honouring
// forwarding headers only when the direct peer is a trusted proxy.
type IPExtractor struct {
	trustedProxies []*net.IPNet
	spoofAttempts  int64
}

// NewIPExtractor trusts loopback and the private ranges.
func NewIPExtractor() *IPExtractor {
	return &IPExtractor{
		trustedProxies: []*net.IPNet{
			mustParseCIDR("127.0.0.0/8"),
			mustParseCIDR("10.0.0.0/8"),
			mustParseCIDR("172.16.0.0/12"),
			mustParseCIDR("192.168.0.0/16"),
		},
	}
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy adds a trusted proxy network
func (e *IPExtractor) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	e.trustedProxies = append(e.trustedProxies, network)
	return nil
}

// ClientIP returns the first valid X-Forwarded-For entry, then X-Real-IP,
// when the peer is trusted. Otherwise the peer address is returned.
func (e *IPExtractor) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	parsed := net.ParseIP(directIP)
	if parsed == nil {
		return directIP
	}

	if !e.isTrustedProxy(parsed) {
		if r.Header.Get("X-Forwarded-For") != "" || r.Header.Get("X-Real-IP") != "" {
			atomic.AddInt64(&e.spoofAttempts, 1)
		}
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (e *IPExtractor) isTrustedProxy(ip net.IP) bool {
	for _, network := range e.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// UntrustedForwardCount reports how many requests carried forwarding
// headers from a peer outside the trusted ranges.
func (e *IPExtractor) UntrustedForwardCount() int64 {
	return atomic.LoadInt64(&e.spoofAttempts)
}
