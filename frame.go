package tymws

import (
	"encoding/binary"
	"math"
)

const (
	OpcodeText   uint8 = 0x1 // Text frame (UTF-8)
	OpcodeBinary uint8 = 0x2 // Binary frame
	OpcodeClose  uint8 = 0x8 // Connection close
	OpcodePing   uint8 = 0x9 // Ping
	OpcodePong   uint8 = 0xA // Pong
)

const (
	CloseNormalClosure     uint16 = 1000
	CloseGoingAway         uint16 = 1001
	CloseProtocolError     uint16 = 1002
	CloseUnsupportedData   uint16 = 1003
	ClosePolicyViolation   uint16 = 1008
	CloseMessageTooBig     uint16 = 1009
	CloseInternalServerErr uint16 = 1011
)

// EncodeFrame builds a single unfragmented server-to-client frame: FIN bit
// always set, mask bit never set, payload appended unmodified. The length
// field follows RFC 6455: one byte up to 125, 126 + 2 bytes big-endian up to
// 65535, 127 + a full 8 bytes big-endian above that.
// Returns ErrInvalidFrameType when the opcode is not one of the five
// recognized values.
func EncodeFrame(opcode uint8, payload []byte) ([]byte, error) {
	switch opcode {
	case OpcodeText, OpcodeBinary, OpcodeClose, OpcodePing, OpcodePong:
	default:
		return nil, ErrInvalidFrameType
	}

	b := make([]byte, 2, 2+8+len(payload))
	b[0] = 0b10000000 | opcode

	switch {
	case len(payload) <= 125:
		b[1] = byte(len(payload))
	case len(payload) <= math.MaxUint16:
		b[1] = 126
		b = binary.BigEndian.AppendUint16(b, uint16(len(payload)))
	default:
		b[1] = 127
		b = binary.BigEndian.AppendUint64(b, uint64(len(payload)))
	}

	return append(b, payload...), nil
}

// DecodeFrame recovers the payload of a fully buffered client-to-server
// frame. Client frames must carry the mask bit; the payload is unmasked by
// XOR-ing with the 4-byte key cyclically. Reassembling a frame from a
// streaming transport is the caller's job, DecodeFrame never reads.
func DecodeFrame(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, ErrIncompleteFrame
	}
	if raw[1]&0b10000000 == 0 {
		return nil, ErrUnmaskedFrame
	}

	var length, offset int
	switch declared := int(raw[1] & 0b01111111); declared {
	case 126:
		if len(raw) < 4 {
			return nil, ErrIncompleteFrame
		}
		length = int(binary.BigEndian.Uint16(raw[2:4]))
		offset = 4
	case 127:
		if len(raw) < 10 {
			return nil, ErrIncompleteFrame
		}
		length64 := binary.BigEndian.Uint64(raw[2:10])
		if length64 > math.MaxInt32 {
			return nil, ErrIncompleteFrame
		}
		length = int(length64)
		offset = 10
	default:
		length = declared
		offset = 2
	}

	if len(raw) < offset+4+length {
		return nil, ErrIncompleteFrame
	}
	key := raw[offset : offset+4]
	masked := raw[offset+4 : offset+4+length]

	payload := make([]byte, length)
	for i := range masked {
		payload[i] = masked[i] ^ key[i%4]
	}

	return payload, nil
}

// ClosePayload builds the payload of a close frame: the status code as
// 4 bytes big-endian followed by the UTF-8 reason text.
func ClosePayload(code uint16, reason string) []byte {
	p := make([]byte, 4, 4+len(reason))
	binary.BigEndian.PutUint32(p, uint32(code))
	return append(p, reason...)
}

// ParseClosePayload splits a close payload back into status code and reason.
func ParseClosePayload(p []byte) (uint16, string) {
	if len(p) < 4 {
		return 0, ""
	}
	return uint16(binary.BigEndian.Uint32(p[:4])), string(p[4:])
}
