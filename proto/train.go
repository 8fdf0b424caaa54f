package proto

import "encoding/binary"

// TrainRequest is the structured command the track authority's courier pool
// forwards to the train-controller server, and that a train's own local
// pathing (an external collaborator, per spec.md §1) would send directly
// for speed/direction changes. The server translates this into the raw
// byte protocol spec.md §6 defines for UART1 (0x00..0x0E speed, 0x0F
// reverse, 0x20..0x21 switch).
type TrainRequest struct {
	Kind Kind
	Unit byte
	// Value is the speed level for SET_SPEED or the switch direction byte
	// for SET_SWITCH; unused for REVERSE.
	Value byte
	// NodeID is the switch id for SET_SWITCH; unused otherwise.
	NodeID int16
}

func (r TrainRequest) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(r.Kind)
	buf[1] = r.Unit
	buf[2] = r.Value
	binary.LittleEndian.PutUint16(buf[3:], uint16(r.NodeID))
	return buf
}

func DecodeTrainRequest(b []byte) (TrainRequest, bool) {
	if len(b) < 5 {
		return TrainRequest{}, false
	}
	return TrainRequest{
		Kind:   Kind(b[0]),
		Unit:   b[1],
		Value:  b[2],
		NodeID: int16(binary.LittleEndian.Uint16(b[3:])),
	}, true
}
