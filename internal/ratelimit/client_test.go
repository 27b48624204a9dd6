package ratelimit

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID_PrefersAPIKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/mood", nil)
	r.Header.Set("X-API-Key", "secret-key")
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.RemoteAddr = "192.0.2.1:55000"

	id := ClientID(r)
	assert.True(t, strings.HasPrefix(id, "secret-key:"))
}

func TestClientID_ForwardedForFirstHop(t *testing.T) {
	r := httptest.NewRequest("GET", "/mood", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1, 10.0.0.2")
	r.RemoteAddr = "192.0.2.1:55000"

	id := ClientID(r)
	assert.True(t, strings.HasPrefix(id, "203.0.113.9:"))
}

func TestClientID_PeerAddressStripsPort(t *testing.T) {
	r := httptest.NewRequest("GET", "/mood", nil)
	r.RemoteAddr = "192.0.2.1:55000"

	id := ClientID(r)
	assert.True(t, strings.HasPrefix(id, "192.0.2.1:"))
}

func TestClientID_IPv6Peer(t *testing.T) {
	r := httptest.NewRequest("GET", "/mood", nil)
	r.RemoteAddr = "[2001:db8::1]:55000"

	id := ClientID(r)
	assert.True(t, strings.HasPrefix(id, "2001:db8::1:"))
}

func TestClientID_Unknown(t *testing.T) {
	r := httptest.NewRequest("GET", "/mood", nil)
	r.RemoteAddr = ""

	id := ClientID(r)
	assert.True(t, strings.HasPrefix(id, "unknown:"))
}

func TestClientID_UserAgentSeparatesClients(t *testing.T) {
	a := httptest.NewRequest("GET", "/mood", nil)
	a.RemoteAddr = "192.0.2.1:55000"
	a.Header.Set("User-Agent", "curl/8.0")

	b := httptest.NewRequest("GET", "/mood", nil)
	b.RemoteAddr = "192.0.2.1:55000"
	b.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	// Same IP behind NAT, different agents, usually different buckets.
	assert.NotEqual(t, ClientID(a), ClientID(b))
}

func TestClientID_LongUserAgentTruncated(t *testing.T) {
	base := strings.Repeat("a", maxUserAgentLen)

	a := httptest.NewRequest("GET", "/mood", nil)
	a.RemoteAddr = "192.0.2.1:55000"
	a.Header.Set("User-Agent", base+"-tail-one")

	b := httptest.NewRequest("GET", "/mood", nil)
	b.RemoteAddr = "192.0.2.1:55000"
	b.Header.Set("User-Agent", base+"-tail-two")

	// Only the first maxUserAgentLen bytes feed the hash.
	assert.Equal(t, ClientID(a), ClientID(b))
}

func TestEndpointKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/mood/analyze?q=1", nil)
	assert.Equal(t, "POST:/mood/analyze", EndpointKey(r))
}
