package proto

import "encoding/binary"

// TrackRequest is the single message shape every track-authority operation
// rides on -- one Kind tag selecting which fields are meaningful, mirroring
// the request union original_source/src/server/track_server.cc's
// TrackServerReq packs its opcode-specific arguments into.
type TrackRequest struct {
	Kind Kind

	// TrainID identifies the caller for TRY_RESERVE/UNRESERVE, or the
	// subscriber task id for SWITCH_SUBSCRIBE.
	TrainID int32

	// NodeA/NodeB are the switch id (GET_SWITCH_STATE/SWITCH) or the
	// from/to pair (GET_PATH).
	NodeA int16
	NodeB int16

	// Dir is the switch direction for SWITCH (0 = straight, 1 = curved).
	Dir byte

	// AllowReverse permits GET_PATH to include a single direction
	// reversal, per spec.md §4.5.
	AllowReverse bool

	// Path is the ordered node list TRY_RESERVE/UNRESERVE act on
	// atomically, mirroring original_source's reservation.path/len.
	Path []int16

	// Banned lists node indices GET_PATH must not route through.
	Banned []int16

	// TopologyID selects which embedded layout INIT loads.
	TopologyID byte
}

func (r TrackRequest) Encode() []byte {
	buf := make([]byte, 14+2*len(r.Path)+2+2*len(r.Banned))
	buf[0] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(r.TrainID))
	binary.LittleEndian.PutUint16(buf[5:7], uint16(r.NodeA))
	binary.LittleEndian.PutUint16(buf[7:9], uint16(r.NodeB))
	buf[9] = r.Dir
	if r.AllowReverse {
		buf[10] = 1
	}
	buf[11] = r.TopologyID
	binary.LittleEndian.PutUint16(buf[12:14], uint16(len(r.Path)))
	off := 14
	for _, n := range r.Path {
		binary.LittleEndian.PutUint16(buf[off:], uint16(n))
		off += 2
	}
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(r.Banned)))
	off += 2
	for _, n := range r.Banned {
		binary.LittleEndian.PutUint16(buf[off:], uint16(n))
		off += 2
	}
	return buf
}

func DecodeTrackRequest(b []byte) (TrackRequest, bool) {
	if len(b) < 14 {
		return TrackRequest{}, false
	}
	req := TrackRequest{
		Kind:         Kind(b[0]),
		TrainID:      int32(binary.LittleEndian.Uint32(b[1:5])),
		NodeA:        int16(binary.LittleEndian.Uint16(b[5:7])),
		NodeB:        int16(binary.LittleEndian.Uint16(b[7:9])),
		Dir:          b[9],
		AllowReverse: b[10] != 0,
		TopologyID:   b[11],
	}

	pathLen := int(binary.LittleEndian.Uint16(b[12:14]))
	off := 14
	if off+2*pathLen > len(b) {
		return TrackRequest{}, false
	}
	req.Path = make([]int16, pathLen)
	for i := range req.Path {
		req.Path[i] = int16(binary.LittleEndian.Uint16(b[off:]))
		off += 2
	}

	if off+2 > len(b) {
		return TrackRequest{}, false
	}
	bannedLen := int(binary.LittleEndian.Uint16(b[off : off+2]))
	off += 2
	if off+2*bannedLen > len(b) {
		return TrackRequest{}, false
	}
	req.Banned = make([]int16, bannedLen)
	for i := range req.Banned {
		req.Banned[i] = int16(binary.LittleEndian.Uint16(b[off:]))
		off += 2
	}

	return req, true
}

// TrackReply carries the result of a track-authority operation. Which
// fields are meaningful again depends on the request Kind that produced
// it. Length/Reversed/ReverseAt/ReverseOffset are GET_PATH's answer to
// spec.md §4.5's weighted_path_with_ban -- a caller that allowed a reversal
// needs to know whether one was used and where, not just the flattened
// node list.
type TrackReply struct {
	Result int32
	Path   []int16
	State  byte

	Length int32

	Reversed      bool
	ReverseAt     int16
	ReverseOffset int32
}

func (r TrackReply) Encode() []byte {
	const header = 16
	buf := make([]byte, header+2*len(r.Path))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Result))
	buf[4] = r.State
	binary.LittleEndian.PutUint32(buf[5:9], uint32(r.Length))
	if r.Reversed {
		buf[9] = 1
	}
	binary.LittleEndian.PutUint16(buf[10:12], uint16(r.ReverseAt))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.ReverseOffset))
	for i, n := range r.Path {
		binary.LittleEndian.PutUint16(buf[header+2*i:], uint16(n))
	}
	return buf
}

func DecodeTrackReply(b []byte) (TrackReply, bool) {
	if len(b) < 16 {
		return TrackReply{}, false
	}
	rep := TrackReply{
		Result:        int32(binary.LittleEndian.Uint32(b[0:4])),
		State:         b[4],
		Length:        int32(binary.LittleEndian.Uint32(b[5:9])),
		Reversed:      b[9] != 0,
		ReverseAt:     int16(binary.LittleEndian.Uint16(b[10:12])),
		ReverseOffset: int32(binary.LittleEndian.Uint32(b[12:16])),
	}
	rest := b[16:]
	rep.Path = make([]int16, len(rest)/2)
	for i := range rep.Path {
		rep.Path[i] = int16(binary.LittleEndian.Uint16(rest[2*i:]))
	}
	return rep, true
}
