package tymws

import "github.com/rs/zerolog"

type Options struct {
	// Logger receives structured accept/reject/disconnect events. If not set
	// it defaults to a disabled logger and the library stays quiet.
	Logger *zerolog.Logger
	// Limiter throttles handshake attempts per remote address. Nil means no
	// throttling.
	Limiter *HandshakeLimiter

	// Ran when a handshake is accepted and the connection registered.
	OnConnect func(conn *Conn)
	// Ran after a connection is disconnected and removed.
	OnDisconnect func(conn *Conn)
}

func (opt *Options) WithDefault() {
	if opt.Logger == nil {
		nop := zerolog.Nop()
		opt.Logger = &nop
	}
}
