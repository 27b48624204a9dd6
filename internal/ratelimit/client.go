package ratelimit

import (
	"hash/fnv"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// maxUserAgentLen bounds how much of the user-agent string feeds the
// client identity hash.
const maxUserAgentLen = 50

// ClientID derives a client identifier from request metadata: an
// explicit API key header when present, else the first hop of the
// forwarded-for chain, else the transport-level peer address. The
// identifier is combined with a truncated user-agent hash to reduce
// false sharing of one IP across unrelated clients behind shared NAT.
// This is a heuristic, not a security boundary.
func ClientID(r *http.Request) string {
	var id string
	switch {
	case r.Header.Get("X-API-Key") != "":
		id = r.Header.Get("X-API-Key")
	case r.Header.Get("X-Forwarded-For") != "":
		chain := r.Header.Get("X-Forwarded-For")
		id = strings.TrimSpace(strings.SplitN(chain, ",", 2)[0])
	case r.RemoteAddr != "":
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			id = host
		} else {
			id = r.RemoteAddr
		}
	default:
		id = "unknown"
	}

	return id + ":" + userAgentFingerprint(r.UserAgent())
}

// userAgentFingerprint hashes the truncated user-agent into a small
// numeric bucket.
func userAgentFingerprint(ua string) string {
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(ua))
	return strconv.FormatUint(uint64(h.Sum32()%10000), 10)
}

// EndpointKey derives the endpoint key from the request method and path.
func EndpointKey(r *http.Request) string {
	return r.Method + ":" + r.URL.Path
}
