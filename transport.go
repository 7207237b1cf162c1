package tymws

import "net"

// Transport is the boundary to whatever owns the raw byte stream of one
// connection. The core never creates, binds or reads sockets; it only writes
// response and frame bytes through this interface and tears it down on
// disconnect.
type Transport interface {
	Write(p []byte) (int, error)
	// Shutdown half-closes the stream so already-written bytes flush before
	// Close tears it down.
	Shutdown() error
	Close() error
}

// netTransport adapts a net.Conn to the Transport boundary. Shutdown maps to
// CloseWrite when the underlying connection supports it. The promoted
// RemoteAddr is what the handshake limiter keys throttling on.
type netTransport struct {
	net.Conn
}

// NewNetTransport wraps a net.Conn as a Transport.
func NewNetTransport(c net.Conn) Transport {
	return &netTransport{Conn: c}
}

func (t *netTransport) Shutdown() error {
	if cw, ok := t.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
