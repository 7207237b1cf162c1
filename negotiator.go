package tymws

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Outcome is the terminal state of one handshake attempt.
type Outcome int

const (
	Accepted Outcome = iota
	BadRequest
	NotFound
	Forbidden
	Throttled
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case BadRequest:
		return "bad request"
	case NotFound:
		return "not found"
	case Forbidden:
		return "forbidden"
	case Throttled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Decision is the result of negotiating one handshake: the outcome, the HTTP
// response text to write back to the client, and on acceptance the derived
// accept key. Rejections are expected recoverable results, not errors;
// Reason carries what failed.
type Decision struct {
	Outcome   Outcome
	Response  string
	AcceptKey string
	Reason    error
}

func (d Decision) Accepted() bool {
	return d.Outcome == Accepted
}

const (
	responseBadRequest      = "HTTP/1.1 400 Bad Request\r\n\r\n"
	responseNotFound        = "HTTP/1.1 404 Not Found\r\n\r\n"
	responseForbidden       = "HTTP/1.1 403 Forbidden\r\n\r\n"
	responseTooManyRequests = "HTTP/1.1 429 Too Many Requests\r\n\r\n"
)

// negotiator decides accept/reject for handshake requests against the
// configured hostname, services and origins. Patterns are compiled once at
// server construction.
type negotiator struct {
	cfg      *Config
	host     *regexp.Regexp
	services []*regexp.Regexp
}

func newNegotiator(cfg *Config) (*negotiator, error) {
	host, err := regexp.Compile(cfg.Hostname)
	if err != nil {
		return nil, configErr("hostname", errors.Wrap(errBadHostPattern, err.Error()))
	}

	// A target matches a service when it equals the service path followed
	// optionally by a ?key=value[&key=value...] query suffix.
	services := make([]*regexp.Regexp, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		pattern := `^` + regexp.QuoteMeta(svc) + `(\?[^=&?]+=[^=&?]+(&[^=&?]+=[^=&?]+)*)?$`
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, configErr("services", err)
		}
		services = append(services, re)
	}

	return &negotiator{cfg: cfg, host: host, services: services}, nil
}

// negotiate runs the one-pass decision over a parsed handshake. Each step
// short-circuits: precondition failures reject with 400 before the service
// lookup, unknown targets with 404 before the origin check, and a restricted
// origin set rejects with 403 before the accept key is ever derived.
func (n *negotiator) negotiate(req *HandshakeRequest) Decision {
	if err := n.acceptHandshake(req); err != nil {
		return Decision{Outcome: BadRequest, Response: responseBadRequest, Reason: err}
	}

	if !slices.ContainsFunc(n.services, func(re *regexp.Regexp) bool {
		return re.MatchString(req.Target)
	}) {
		return Decision{Outcome: NotFound, Response: responseNotFound, Reason: ErrUnknownService}
	}

	if len(n.cfg.Origins) > 0 {
		origin, ok := req.Headers["Origin"]
		if !ok || !slices.Contains(n.cfg.Origins, origin) {
			return Decision{Outcome: Forbidden, Response: responseForbidden, Reason: ErrOriginNotAllowed}
		}
	}

	acceptKey := DeriveAcceptKey(req.Headers["Sec-WebSocket-Key"])

	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	b.WriteString("Sec-WebSocket-Accept: " + acceptKey + "\r\n")
	b.WriteString("\r\n")

	return Decision{Outcome: Accepted, Response: b.String(), AcceptKey: acceptKey}
}

// acceptHandshake validates the upgrade preconditions in order, returning the
// first failure.
func (n *negotiator) acceptHandshake(req *HandshakeRequest) error {
	host, ok := req.Headers["Host"]
	if !ok {
		return ErrMissingHostHeader
	}
	if !n.host.MatchString(host) {
		return ErrHostMismatch
	}

	upgrade, ok := req.Headers["Upgrade"]
	if !ok {
		return ErrMissingUpgradeHeader
	}
	if !strings.EqualFold(strings.TrimSpace(upgrade), "websocket") {
		return ErrInvalidUpgradeHeader
	}

	connection, ok := req.Headers["Connection"]
	if !ok {
		return ErrMissingConnectionHeader
	}
	if !strings.Contains(strings.ToLower(connection), "upgrade") {
		return ErrInvalidConnectionHeader
	}

	if err := validateSecKey(req.Headers["Sec-WebSocket-Key"]); err != nil {
		return err
	}

	version, ok := req.Headers["Sec-WebSocket-Version"]
	if !ok {
		return ErrMissingVersionHeader
	}
	if strings.TrimSpace(version) != "13" {
		return ErrInvalidVersionHeader
	}

	return nil
}
