package tymws

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFrameType = errors.New("invalid frame type")
	ErrIncompleteFrame  = errors.New("incomplete frame")
	ErrUnmaskedFrame    = errors.New("received unmasked frame, all frames from the client must be masked")

	ErrMalformedRequestLine = errors.New("malformed request line")

	ErrMissingHostHeader       = errors.New("missing Host header")
	ErrHostMismatch            = errors.New("Host header does not match the configured hostname")
	ErrMissingUpgradeHeader    = errors.New("missing Upgrade header")
	ErrInvalidUpgradeHeader    = errors.New("invalid Upgrade header")
	ErrMissingConnectionHeader = errors.New("missing Connection header")
	ErrInvalidConnectionHeader = errors.New("invalid Connection header")
	ErrMissingVersionHeader    = errors.New("missing Sec-WebSocket-Version header")
	ErrInvalidVersionHeader    = errors.New("invalid Sec-WebSocket-Version header, must be 13")
	ErrMissingSecKey           = errors.New("missing Sec-WebSocket-Key header")
	ErrInvalidSecKey           = errors.New("invalid Sec-WebSocket-Key header")

	ErrUnknownService   = errors.New("request target matches no configured service")
	ErrOriginNotAllowed = errors.New("origin is not in the allowed set")

	ErrInvalidOrigin      = errors.New("origin is not a well-formed URL")
	ErrConnNotFound       = errors.New("can't remove a non existing connection")
	ErrHandshakeThrottled = errors.New("too many handshake attempts")

	errInvalidBindAddr = errors.New("bind address must be a dotted-quad IPv4 address")
	errInvalidPort     = errors.New("port must be outside the 1023-65535 range")
	errEmptyHostname   = errors.New("hostname must not be empty")
	errNoServices      = errors.New("at least one service path is required")
	errBadHostPattern  = errors.New("hostname is not a valid pattern")
)

// ConfigError reports an invalid Config field. It is fatal to startup:
// NewServer refuses a config that produces one.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Err.Error())
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}
