package proto

import "encoding/binary"

// ErrorPayload is the uniform failure body a server sends back in place of
// a normal reply. Grounded on the teacher's ErrorPayload/DecodeErrorPayload
// (sparkos/proto/error.go): a little-endian int32 code, nothing else.
type ErrorPayload struct {
	Code int32
}

func (e ErrorPayload) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(e.Code))
	return buf
}

func DecodeErrorPayload(b []byte) (ErrorPayload, bool) {
	if len(b) < 4 {
		return ErrorPayload{}, false
	}
	return ErrorPayload{Code: int32(binary.LittleEndian.Uint32(b))}, true
}
