package proto

import "encoding/binary"

// NameMaxLen bounds a registered name, matching spec.md §6's "up to
// 16-byte names."
const NameMaxLen = 16

// NameRequest is sent to the name server: REGISTER_AS carries the caller's
// own name, WHO_IS carries the name being looked up.
type NameRequest struct {
	Kind Kind
	Name [NameMaxLen]byte
}

func EncodeNameRequest(kind Kind, name string) NameRequest {
	var req NameRequest
	req.Kind = kind
	copy(req.Name[:], name)
	return req
}

func (r NameRequest) Encode() []byte {
	buf := make([]byte, 1+NameMaxLen)
	buf[0] = byte(r.Kind)
	copy(buf[1:], r.Name[:])
	return buf
}

func DecodeNameRequest(b []byte) (NameRequest, bool) {
	if len(b) < 1+NameMaxLen {
		return NameRequest{}, false
	}
	var req NameRequest
	req.Kind = Kind(b[0])
	copy(req.Name[:], b[1:1+NameMaxLen])
	return req, true
}

func (r NameRequest) NameString() string {
	n := 0
	for n < len(r.Name) && r.Name[n] != 0 {
		n++
	}
	return string(r.Name[:n])
}

// EncodeInt32Reply/DecodeInt32Reply cover both the name server's id reply
// and the clock server's tick replies: a single little-endian int32.
func EncodeInt32Reply(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func DecodeInt32Reply(b []byte) (int32, bool) {
	if len(b) < 4 {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(b)), true
}
