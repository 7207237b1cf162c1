// Package tymws implements the server side of the WebSocket protocol:
// the HTTP Upgrade handshake and the binary frame format exchanged after it.
//
// The package owns no sockets and runs no loops. An external transport feeds
// it one already-buffered handshake or frame at a time and takes the bytes it
// produces; everything in between — parsing, policy checks, accept-key
// derivation, frame encoding and decoding — lives here.
//
// # Components
//
//   - Frame codec: EncodeFrame / DecodeFrame, pure byte-slice in, byte-slice out
//   - Handshake parser: raw request text into a HandshakeRequest
//   - Negotiator: one-pass accept/reject decision with the response to write back
//   - Registry: insertion-ordered set of accepted connections
//   - Server: the facade composing all of the above with Send, Broadcast and
//     Disconnect
//
// Fragmentation, automatic ping/pong scheduling and TLS are out of scope;
// layer them on top if your deployment needs them.
package tymws
