package codec

import (
	"encoding/binary"

	"execcore/internal/schema"
)

const EventPayloadSize = 120

// EncodeEvent serializes an engine event into a fixed-size payload.
func EncodeEvent(dst []byte, ev schema.Event) []byte {
	if cap(dst) < EventPayloadSize {
		dst = make([]byte, EventPayloadSize)
	} else {
		dst = dst[:EventPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], ev.OrderID)
	copy(dst[8:24], ev.Symbol[:])
	binary.LittleEndian.PutUint64(dst[24:32], uint64(ev.Price))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(ev.Quantity))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(ev.Timestamp))
	binary.LittleEndian.PutUint16(dst[48:50], uint16(ev.Type))
	binary.LittleEndian.PutUint16(dst[50:52], schema.SchemaVersion)
	binary.LittleEndian.PutUint32(dst[52:56], uint32(ev.Error))
	copy(dst[56:120], ev.Message[:])

	return dst
}

// DecodeEvent parses a fixed-size event payload. Payloads from another schema
// version or with an unknown event type are refused.
func DecodeEvent(src []byte) (schema.Event, bool) {
	if len(src) < EventPayloadSize {
		return schema.Event{}, false
	}
	if binary.LittleEndian.Uint16(src[50:52]) != schema.SchemaVersion {
		return schema.Event{}, false
	}
	typ := binary.LittleEndian.Uint16(src[48:50])
	if typ > 0xff || !schema.EventType(typ).IsAvailable() {
		return schema.Event{}, false
	}

	ev := schema.Event{
		Type:      schema.EventType(typ),
		Error:     schema.ErrorCode(int32(binary.LittleEndian.Uint32(src[52:56]))),
		OrderID:   binary.LittleEndian.Uint64(src[0:8]),
		Price:     schema.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		Quantity:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		Timestamp: int64(binary.LittleEndian.Uint64(src[40:48])),
	}
	copy(ev.Symbol[:], src[8:24])
	copy(ev.Message[:], src[56:120])
	return ev, true
}

// EventKey returns the partition key for an event: its symbol bytes without padding.
func EventKey(ev schema.Event) []byte {
	return ev.Symbol[:ev.Symbol.Len()]
}
