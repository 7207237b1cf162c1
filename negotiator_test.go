package tymws

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Addr:     "127.0.0.1",
		Port:     80,
		Hostname: "example.com",
		Services: []string{"/chat", "/notifications"},
	}
}

func testRequest(target string) *HandshakeRequest {
	return &HandshakeRequest{
		Method:  "GET",
		Target:  target,
		Version: "HTTP/1.1",
		Headers: map[string]string{
			"Host":                  "example.com",
			"Upgrade":               "websocket",
			"Connection":            "Upgrade",
			"Sec-WebSocket-Key":     "dGhlIHNhbXBsZSBub25jZQ==",
			"Sec-WebSocket-Version": "13",
		},
	}
}

func TestNegotiatePreconditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *HandshakeRequest)
		reason error
	}{
		{"missing host", func(r *HandshakeRequest) { delete(r.Headers, "Host") }, ErrMissingHostHeader},
		{"host mismatch", func(r *HandshakeRequest) { r.Headers["Host"] = "other.org" }, ErrHostMismatch},
		{"missing upgrade", func(r *HandshakeRequest) { delete(r.Headers, "Upgrade") }, ErrMissingUpgradeHeader},
		{"wrong upgrade", func(r *HandshakeRequest) { r.Headers["Upgrade"] = "h2c" }, ErrInvalidUpgradeHeader},
		{"missing connection", func(r *HandshakeRequest) { delete(r.Headers, "Connection") }, ErrMissingConnectionHeader},
		{"wrong connection", func(r *HandshakeRequest) { r.Headers["Connection"] = "keep-alive" }, ErrInvalidConnectionHeader},
		{"missing key", func(r *HandshakeRequest) { delete(r.Headers, "Sec-WebSocket-Key") }, ErrMissingSecKey},
		{"short key", func(r *HandshakeRequest) { r.Headers["Sec-WebSocket-Key"] = "c2hvcnQ=" }, ErrInvalidSecKey},
		{"missing version", func(r *HandshakeRequest) { delete(r.Headers, "Sec-WebSocket-Version") }, ErrMissingVersionHeader},
		{"wrong version", func(r *HandshakeRequest) { r.Headers["Sec-WebSocket-Version"] = "8" }, ErrInvalidVersionHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			neg, err := newNegotiator(testConfig())
			require.NoError(t, err)

			// an unknown target proves precondition failures short-circuit
			// before the service lookup
			req := testRequest("/nowhere")
			tt.mutate(req)

			d := neg.negotiate(req)
			assert.Equal(t, BadRequest, d.Outcome)
			assert.Equal(t, responseBadRequest, d.Response)
			assert.ErrorIs(t, d.Reason, tt.reason)
		})
	}
}

func TestNegotiateServiceResolution(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		outcome Outcome
	}{
		{"exact path", "/chat", Accepted},
		{"second service", "/notifications", Accepted},
		{"query suffix", "/chat?room=lobby", Accepted},
		{"multi pair query", "/chat?room=lobby&user=ann", Accepted},
		{"unknown path", "/video", NotFound},
		{"prefix only", "/chat/extra", NotFound},
		{"prefix of service", "/cha", NotFound},
		{"malformed query", "/chat?room", NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			neg, err := newNegotiator(testConfig())
			require.NoError(t, err)

			d := neg.negotiate(testRequest(tt.target))
			assert.Equal(t, tt.outcome, d.Outcome)
			if tt.outcome == NotFound {
				assert.Equal(t, responseNotFound, d.Response)
				assert.ErrorIs(t, d.Reason, ErrUnknownService)
			}
		})
	}
}

func TestNegotiateOriginRestricted(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.AddOrigin("https://app.example.com"))

	neg, err := newNegotiator(cfg)
	require.NoError(t, err)

	// absent Origin
	d := neg.negotiate(testRequest("/chat"))
	assert.Equal(t, Forbidden, d.Outcome)
	assert.Equal(t, responseForbidden, d.Response)

	// not a member
	req := testRequest("/chat")
	req.Headers["Origin"] = "https://evil.example.com"
	assert.Equal(t, Forbidden, neg.negotiate(req).Outcome)

	// exact member
	req = testRequest("/chat")
	req.Headers["Origin"] = "https://app.example.com"
	assert.Equal(t, Accepted, neg.negotiate(req).Outcome)
}

func TestNegotiateOriginUnrestricted(t *testing.T) {
	// empty allowed set fails open: any (or no) Origin is accepted
	neg, err := newNegotiator(testConfig())
	require.NoError(t, err)

	assert.Equal(t, Accepted, neg.negotiate(testRequest("/chat")).Outcome)

	req := testRequest("/chat")
	req.Headers["Origin"] = "https://anywhere.org"
	assert.Equal(t, Accepted, neg.negotiate(req).Outcome)
}

func TestNegotiateHostPattern(t *testing.T) {
	// the hostname is a pattern matched as a substring, not compared
	// literally: a Host carrying a port or a prefix still matches
	neg, err := newNegotiator(testConfig())
	require.NoError(t, err)

	for _, host := range []string{"example.com", "example.com:8080", "ws.example.com"} {
		req := testRequest("/chat")
		req.Headers["Host"] = host
		assert.Equal(t, Accepted, neg.negotiate(req).Outcome, "host %q", host)
	}
}

func TestNegotiateAcceptResponse(t *testing.T) {
	neg, err := newNegotiator(testConfig())
	require.NoError(t, err)

	d := neg.negotiate(testRequest("/chat"))
	require.Equal(t, Accepted, d.Outcome)

	// RFC 6455 worked example key
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", d.AcceptKey)

	assert.True(t, strings.HasPrefix(d.Response, "HTTP/1.1 101 Switching Protocols\r\n"))
	assert.Contains(t, d.Response, "Upgrade: websocket\r\n")
	assert.Contains(t, d.Response, "Connection: Upgrade\r\n")
	assert.Contains(t, d.Response, "Sec-WebSocket-Version: 13\r\n")
	assert.Contains(t, d.Response, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n")
	assert.True(t, strings.HasSuffix(d.Response, "\r\n\r\n"))
}
