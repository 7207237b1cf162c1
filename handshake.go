package tymws

import (
	"crypto/sha1"
	"encoding/base64"
	"regexp"
	"strings"
)

const GUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var (
	httpVersionRe = regexp.MustCompile(`^HTTP/\d\.\d$`)
	queryParamRe  = regexp.MustCompile(`\?([^=&?\s]+)=([^=&?\s]+)`)
)

// HandshakeRequest is one parsed HTTP Upgrade request. Header names are kept
// case-sensitive exactly as received; a repeated name keeps its last value.
type HandshakeRequest struct {
	Method  string
	Target  string
	Version string
	Headers map[string]string
}

// ParseHandshake parses the raw handshake text the transport buffered for us.
// Only the request line is ever rejected; header lines that don't look like
// "Name: Value" are skipped.
func ParseHandshake(raw string) (*HandshakeRequest, error) {
	line, rest, _ := strings.Cut(raw, "\n")

	method, target, version, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	return &HandshakeRequest{
		Method:  method,
		Target:  target,
		Version: version,
		Headers: parseHeaders(rest),
	}, nil
}

// Path returns the request target stripped of its query string.
func (r *HandshakeRequest) Path() string {
	path, _, _ := strings.Cut(r.Target, "?")
	return path
}

// QueryParams extracts at most one key=value pair from the request target,
// or nil when the target carries none. Deliberately a single-pair extractor:
// callers that need the full query string must not rely on it.
func (r *HandshakeRequest) QueryParams() map[string]string {
	m := queryParamRe.FindStringSubmatch(r.Target)
	if m == nil {
		return nil
	}
	return map[string]string{m[1]: m[2]}
}

func parseRequestLine(line string) (method, target, version string, err error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) != 3 {
		return "", "", "", ErrMalformedRequestLine
	}
	if parts[0] != "GET" || !httpVersionRe.MatchString(parts[2]) {
		return "", "", "", ErrMalformedRequestLine
	}

	return parts[0], parts[1], parts[2], nil
}

func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}

	return headers
}

// DeriveAcceptKey computes the Sec-WebSocket-Accept value for a client key:
// SHA-1 over the key concatenated with the protocol GUID, base64-encoded.
func DeriveAcceptKey(clientKey string) string {
	hashed := sha1.Sum([]byte(clientKey + GUID))
	return base64.StdEncoding.EncodeToString(hashed[:])
}

func validateSecKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingSecKey
	}

	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(decoded) != 16 {
		return ErrInvalidSecKey
	}

	return nil
}
