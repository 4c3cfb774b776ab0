package logging

import (
	"net/netip"
	"strings"
)

type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[strings.ToLower(k)] = struct{}{}
	}
	return s
}

func (s keySet) contains(key string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[strings.ToLower(key)]
	return ok
}

// RedactPrincipal masks a caller identity. IP addresses keep their network
// prefix, anything else keeps a four-character hint.
func RedactPrincipal(v string) string {
	if v == "" {
		return ""
	}
	if addr, err := netip.ParseAddr(v); err == nil {
		if addr.Is4() {
			return RedactIPv4(v)
		}
		return RedactIPv6(addr)
	}
	return RedactAPIKey(v)
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}

// RedactIPv4 redacts an IPv4 address, keeping only the first octet.
func RedactIPv4(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	return parts[0] + ".*.*.*"
}

// RedactIPv6 keeps the first 16-bit group of an IPv6 address.
func RedactIPv6(addr netip.Addr) string {
	s := addr.StringExpanded()
	if i := strings.IndexByte(s, ':'); i > 0 {
		return s[:i] + ":*"
	}
	return "***"
}
