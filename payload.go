package krill

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PAYLOADS: Character Offsets Stored Next to Term Occurrences
// ═══════════════════════════════════════════════════════════════════════════════
// The index does not know characters, only token positions. Every position p
// of a document carries one extra term, "_p", whose occurrence payload holds
// the token's character range:
//
//	term "_3" → [00 00 00 10][00 00 00 13]   → OffsetPair{Start: 16, End: 19}
//	             start int32   end int32       (big-endian)
//
// Span annotations ("<>:s" sentences, elements) carry one more int32, the end
// position of the span, because a span term is only indexed at its start:
//
//	term "<>:s" → [start int32][end int32][endPos int32]
// ═══════════════════════════════════════════════════════════════════════════════

const (
	offsetPayloadSize = 8
	spanPayloadSize   = 12
)

// PositionTerm returns the indirection term that carries the offsets of pos.
func PositionTerm(pos int) string {
	return "_" + strconv.Itoa(pos)
}

// EncodeOffsetPayload packs a character range into an 8-byte payload.
func EncodeOffsetPayload(start, end int) []byte {
	buf := make([]byte, offsetPayloadSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(int32(start)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(int32(end)))
	return buf
}

// DecodeOffsetPayload reads an 8-byte payload written by EncodeOffsetPayload.
func DecodeOffsetPayload(payload []byte) (OffsetPair, error) {
	if len(payload) != offsetPayloadSize {
		return OffsetPair{}, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedPayload, len(payload), offsetPayloadSize)
	}
	return OffsetPair{
		Start: int(int32(binary.BigEndian.Uint32(payload[0:4]))),
		End:   int(int32(binary.BigEndian.Uint32(payload[4:8]))),
	}, nil
}

// EncodeSpanPayload packs the character range and end position of a span.
func EncodeSpanPayload(start, end, endPos int) []byte {
	buf := make([]byte, spanPayloadSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(int32(start)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(int32(end)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(int32(endPos)))
	return buf
}

// DecodeSpanPayload reads a 12-byte span payload.
func DecodeSpanPayload(payload []byte) (OffsetPair, int, error) {
	if len(payload) != spanPayloadSize {
		return OffsetPair{}, 0, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedPayload, len(payload), spanPayloadSize)
	}
	pair := OffsetPair{
		Start: int(int32(binary.BigEndian.Uint32(payload[0:4]))),
		End:   int(int32(binary.BigEndian.Uint32(payload[4:8]))),
	}
	return pair, int(int32(binary.BigEndian.Uint32(payload[8:12]))), nil
}
