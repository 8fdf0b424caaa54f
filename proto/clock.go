package proto

import "encoding/binary"

// ClockRequest is sent to the clock server. Ticks is the delay argument for
// DELAY/DELAY_UNTIL and is unused for TIME.
type ClockRequest struct {
	Kind  Kind
	Ticks int32
}

func (r ClockRequest) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(r.Ticks))
	return buf
}

func DecodeClockRequest(b []byte) (ClockRequest, bool) {
	if len(b) < 5 {
		return ClockRequest{}, false
	}
	return ClockRequest{
		Kind:  Kind(b[0]),
		Ticks: int32(binary.LittleEndian.Uint32(b[1:])),
	}, true
}
