// Package privacy reduces personal and financial identifiers to forms that are
// safe to log.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP truncates an IP to its network prefix: /24 for IPv4 and /48 for
// IPv6. Returns "unknown" for empty input and "invalid" when unparseable.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// ShortAddress keeps the first and last four hex digits of a ledger address
// ("0x1a2b…9f8e"). Short inputs are returned unchanged.
func ShortAddress(addr string) string {
	body := strings.TrimPrefix(strings.ToLower(addr), "0x")
	if len(body) <= 10 {
		return addr
	}
	return "0x" + body[:4] + "…" + body[len(body)-4:]
}
