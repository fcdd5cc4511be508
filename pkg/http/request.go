package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentity is used when neither a forwarded address nor a peer address is available
const UnknownIdentity = "unknown"

// IPConfig holds configuration for client identity resolution
type IPConfig struct {
	// TrustedProxies limits which peers may supply X-Forwarded-For (CIDR ranges).
	// When empty, the header is honoured from any peer.
	TrustedProxies []string
}

// ClientIdentity derives the key used for rate limiting and blacklisting.
// The first X-Forwarded-For entry wins over the transport peer address.
func ClientIdentity(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if config == nil || len(config.TrustedProxies) == 0 || isTrustedProxy(remoteIP, config.TrustedProxies) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if first != "" {
				return first
			}
		}
	}

	return remoteIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}
	return UnknownIdentity
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}
