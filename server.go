package tymws

import (
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Server composes the handshake parser, negotiator and registry behind the
// four operations a transport loop needs: Connect, Disconnect, Send and
// Broadcast. It owns no sockets; every byte moves through the Transport the
// caller hands in.
type Server struct {
	cfg      *Config
	opts     *Options
	neg      *negotiator
	registry *Registry
	log      *zerolog.Logger
}

// NewServer validates cfg, compiles the hostname and service patterns and
// returns the facade. A *ConfigError here is fatal to startup.
func NewServer(cfg *Config, opts *Options) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	neg, err := newNegotiator(cfg)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &Options{}
	}
	opts.WithDefault()

	return &Server{
		cfg:      cfg,
		opts:     opts,
		neg:      neg,
		registry: NewRegistry(),
		log:      opts.Logger,
	}, nil
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Connect negotiates one raw handshake over t. The decision's response text
// is always written back through the transport; on acceptance the handle is
// registered and the returned Conn is live, on rejection the transport is
// closed and the Conn is nil. Rejections are not errors: the error return is
// reserved for transport write failures.
func (s *Server) Connect(t Transport, raw string) (*Conn, Decision, error) {
	remote := remoteAddr(t)

	if s.opts.Limiter != nil && !s.opts.Limiter.allow(remote) {
		d := Decision{Outcome: Throttled, Response: responseTooManyRequests, Reason: ErrHandshakeThrottled}
		return nil, d, s.reject(t, remote, d)
	}

	req, err := ParseHandshake(raw)
	if err != nil {
		d := Decision{Outcome: BadRequest, Response: responseBadRequest, Reason: err}
		return nil, d, s.reject(t, remote, d)
	}

	d := s.neg.negotiate(req)
	if !d.Accepted() {
		return nil, d, s.reject(t, remote, d)
	}

	if _, err := t.Write([]byte(d.Response)); err != nil {
		t.Close()
		return nil, d, errors.Wrap(err, "failed to write handshake response")
	}

	conn := s.registry.Add(t)
	s.log.Info().Str("conn", conn.ID).Str("remote", remote).Str("target", req.Target).Msg("connection accepted")

	if s.opts.OnConnect != nil {
		s.opts.OnConnect(conn)
	}

	return conn, d, nil
}

func (s *Server) reject(t Transport, remote string, d Decision) error {
	s.log.Warn().Str("remote", remote).Str("outcome", d.Outcome.String()).Err(d.Reason).Msg("handshake rejected")

	_, err := t.Write([]byte(d.Response))
	t.Close()
	if err != nil {
		return errors.Wrap(err, "failed to write rejection response")
	}

	return nil
}

// Send encodes one frame and writes it to the connection's transport. It
// reports whether the transport accepted the full encoded buffer; the caller
// decides whether a false means retry or drop.
func (s *Server) Send(conn *Conn, opcode uint8, payload []byte) bool {
	buf, err := EncodeFrame(opcode, payload)
	if err != nil {
		s.log.Error().Str("conn", conn.ID).Err(err).Msg("encode failed")
		return false
	}

	n, err := conn.Transport.Write(buf)
	if err != nil || n != len(buf) {
		s.log.Warn().Str("conn", conn.ID).Err(err).Int("written", n).Msg("send failed")
		return false
	}

	return true
}

// Broadcast sends one frame to each listed connection in order, or to every
// registered connection when conns is nil. A failed write never aborts the
// rest; the delivered count comes back.
func (s *Server) Broadcast(conns []*Conn, opcode uint8, payload []byte) int {
	if conns == nil {
		conns = s.registry.Conns()
	}

	var n int
	for _, conn := range conns {
		if s.Send(conn, opcode, payload) {
			n++
		}
	}

	return n
}

// Disconnect sends a close frame carrying the status code and reason, then
// shuts the transport down and closes it, in that order so the frame is
// flushed before the socket is torn down. The connection leaves the registry
// either way.
func (s *Server) Disconnect(conn *Conn, code uint16, reason string) error {
	s.Send(conn, OpcodeClose, ClosePayload(code, reason))

	shutdownErr := conn.Transport.Shutdown()
	closeErr := conn.Transport.Close()

	if err := s.registry.Remove(conn); err != nil {
		return err
	}
	s.log.Info().Str("conn", conn.ID).Uint16("code", code).Msg("connection closed")

	if s.opts.OnDisconnect != nil {
		s.opts.OnDisconnect(conn)
	}

	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "transport shutdown failed")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "transport close failed")
	}

	return nil
}

func remoteAddr(t Transport) string {
	if ra, ok := t.(interface{ RemoteAddr() net.Addr }); ok {
		if addr := ra.RemoteAddr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}
