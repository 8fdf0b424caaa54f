package track

import (
	"trainctl/kernel"
	"trainctl/proto"
)

// GetPath asks authority for a route from `from` to `to`, honoring banned
// nodes and an optional single reversal, mirroring the client stub every
// other server in this repository exposes next to its request loop.
func GetPath(h *kernel.Handle, authority kernel.TaskID, from, to int16, allowReverse bool, banned []int16) (PathResult, bool) {
	req := proto.TrackRequest{Kind: proto.KindTrackGetPath, NodeA: from, NodeB: to, AllowReverse: allowReverse, Banned: banned}
	buf := make([]byte, kernel.MaxMessageBytes)
	n, err := h.Send(authority, req.Encode(), buf)
	if err != nil {
		return PathResult{}, false
	}
	reply, ok := proto.DecodeTrackReply(buf[:n])
	if !ok || reply.Result != 0 {
		return PathResult{}, false
	}
	return PathResult{
		Path:          reply.Path,
		Length:        reply.Length,
		Reversed:      reply.Reversed,
		ReverseAt:     reply.ReverseAt,
		ReverseOffset: reply.ReverseOffset,
	}, true
}

// TryReserve asks authority to atomically grant train exclusive access to
// every node in path, once path and its internal safety-lookahead extension
// have passed the safety checks (the extension is checked, not reserved).
// On refusal, no node's reservation changes -- there is nothing to roll
// back, since authority never commits a partial path (spec.md §4.6,
// Testable Property #5). The returned DeadlockFound is always false: the
// reply carries no deadlock flag.
func TryReserve(h *kernel.Handle, authority kernel.TaskID, train int32, path []int16) (ReservationResult, bool) {
	req := proto.TrackRequest{Kind: proto.KindTrackTryReserve, TrainID: train, Path: path}
	buf := make([]byte, kernel.MaxMessageBytes)
	n, err := h.Send(authority, req.Encode(), buf)
	if err != nil {
		return ReservationResult{}, false
	}
	reply, ok := proto.DecodeTrackReply(buf[:n])
	if !ok {
		return ReservationResult{}, false
	}
	return ReservationResult{Granted: reply.Result != ReservationRefused, ReservedLength: reply.Length}, true
}

// Unreserve releases train's hold on every node in path.
func Unreserve(h *kernel.Handle, authority kernel.TaskID, train int32, path []int16) {
	req := proto.TrackRequest{Kind: proto.KindTrackUnreserve, TrainID: train, Path: path}
	h.Send(authority, req.Encode(), make([]byte, 8))
}

// SetSwitch commands authority to throw the switch at node to dir.
func SetSwitch(h *kernel.Handle, authority kernel.TaskID, node int16, dir SwitchDir) {
	req := proto.TrackRequest{Kind: proto.KindTrackSwitch, NodeA: node, Dir: byte(dir)}
	h.Send(authority, req.Encode(), make([]byte, 8))
}
