package utils

import (
	"encoding/hex"
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ContributorID derives an opaque submitter id from the request addresses.
// The first X-Forwarded-For hop wins when the request came through a proxy;
// otherwise the remote address is used. Raw addresses are never stored.
func ContributorID(forwardedFor, remoteAddr string) string {
	address := ""
	if hops := splitForwarded(forwardedFor); len(hops) > 0 {
		address = hops[0]
	} else {
		address = hostOnly(remoteAddr)
	}

	if address == "" {
		return ""
	}

	sum := blake2b.Sum256([]byte(address))
	return hex.EncodeToString(sum[:])
}

func splitForwarded(header string) []string {
	var hops []string
	for _, part := range strings.Split(header, ",") {
		if hop := strings.TrimSpace(part); hop != "" {
			hops = append(hops, hop)
		}
	}
	return hops
}

func hostOnly(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
