package track

import (
	"fmt"
	"math/rand/v2"

	"trainctl/courier"
	"trainctl/kernel"
	"trainctl/proto"
)

// NoTrain marks a node as unreserved.
const NoTrain int32 = -1

// ReservationRefused is TryReserve's failure result code, spec.md §7's
// RESERVATION_REFUSED.
const ReservationRefused int32 = -1

// ReserveDir records which direction a reservation was granted in: DIRECT
// on the node named in the request, REVERSE on its mirrored Reverse node.
// Spec.md §3's reserve_dir field; grounded on original_source's
// DIRECT_RESERVE/REVERSE_RESERVE constants set together by track_server.cc's
// reserve lambda.
type ReserveDir byte

const (
	ReserveNone ReserveDir = iota
	ReserveDirect
	ReserveReverse
)

// ReservationResult is TRY_RESERVE's outcome: whether the whole path was
// granted (its safety-lookahead extension is checked, not reserved), whether
// granting it would
// have closed a two-train wait cycle, and the physical distance actually
// committed. Grounded on original_source's ReservationStatus.
type ReservationResult struct {
	Granted        bool
	DeadlockFound  bool
	ReservedLength int32
}

// SwitchCmd is the request forwarded through the courier pool to the
// train-controller server: set the physical switch identified by NodeID to
// Dir. Grounded on original_source's TRAIN_SWITCH courier payload.
type SwitchCmd struct {
	NodeID int16
	Dir    SwitchDir
}

// Authority is the track reservation server: it owns the live per-node
// reservation state layered over a static Graph, and answers
// GET_SWITCH_STATE/RNG/SWITCH/GET_PATH/UNRESERVE/TRY_RESERVE/
// SWITCH_SUBSCRIBE requests one at a time from its own request loop (spec.md
// §4.6/§4.7). INIT has no handler: it gets the same Result -1 reply as any
// unknown kind, and the topology is the Graph given to NewAuthority. Every
// field below is touched only from that loop's goroutine.
type Authority struct {
	graph *Graph

	reservedBy []int32
	reserveDir []ReserveDir
	switchDir  []SwitchDir

	// wanted[train] is the full set of nodes train is currently blocked
	// wanting, rebuilt at the start of every TryReserve so a concurrent
	// train's detectDeadlock call can probe for a two-cycle against it.
	// Grounded on original_source's train_wanted_nodes / detect_deadlock,
	// which walk a per-train set rather than a single remembered node.
	wanted map[int32]map[int16]struct{}

	subscribers []kernel.TaskID
	publisher   kernel.TaskID

	safetyDistanceHops int

	trainController kernel.TaskID
	courierWorkers  []kernel.TaskID
	nextCourier     int

	rng *rand.Rand
}

// NewAuthority builds an Authority over graph. safetyDistanceHops bounds how
// far TryReserve looks ahead of the requested path before granting it
// (spec.md §4.6's safety-lookahead distance, expressed here in graph hops
// since this repository's topologies do not carry the original's physical
// millimeter distances -- see DESIGN.md).
func NewAuthority(graph *Graph, trainController kernel.TaskID, safetyDistanceHops int) *Authority {
	a := &Authority{
		graph:              graph,
		reservedBy:         make([]int32, graph.Len()),
		reserveDir:         make([]ReserveDir, graph.Len()),
		switchDir:          make([]SwitchDir, graph.Len()),
		wanted:             make(map[int32]map[int16]struct{}),
		safetyDistanceHops: safetyDistanceHops,
		trainController:    trainController,
		rng:                rand.New(rand.NewPCG(1, 2)),
	}
	for i := range a.reservedBy {
		a.reservedBy[i] = NoTrain
	}
	return a
}

// Run is the authority's Step-shaped request loop, spawned as a task by the
// boot glue. It never returns.
func (a *Authority) Run(h *kernel.Handle) {
	self := h.MyTid()

	pool := &courier.Pool[SwitchCmd]{
		Capacity:   4,
		Priority:   1,
		Parent:     self,
		Downstream: a.trainController,
		Decode: func(b []byte) SwitchCmd {
			req, _ := proto.DecodeTrainRequest(b)
			return SwitchCmd{NodeID: req.NodeID, Dir: SwitchDir(req.Value)}
		},
		Encode: func(cmd SwitchCmd) []byte {
			return proto.TrainRequest{Kind: proto.KindTrainSetSwitch, NodeID: cmd.NodeID, Value: byte(cmd.Dir)}.Encode()
		},
		Complete: func(req SwitchCmd, reply []byte) []byte {
			return proto.TrackRequest{Kind: proto.KindTrackCourierComplete, NodeA: req.NodeID}.Encode()
		},
	}
	var err error
	a.courierWorkers, err = pool.Spawn(h)
	if err != nil {
		// A pool that cannot fully spawn at boot is a fatal
		// configuration error, not a runtime condition callers recover
		// from.
		panic(err)
	}

	a.publisher, _ = h.Create(1, publisherTask)

	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		req, ok := proto.DecodeTrackRequest(buf[:n])
		if !ok {
			h.Reply(from, proto.TrackReply{Result: -1}.Encode())
			continue
		}
		a.dispatch(h, from, req)
	}
}

func (a *Authority) dispatch(h *kernel.Handle, from kernel.TaskID, req proto.TrackRequest) {
	switch req.Kind {
	case proto.KindTrackGetSwitchState:
		state := byte(0)
		if n, ok := a.graph.Node(req.NodeA); ok {
			state = byte(a.switchDir[n.ID])
		}
		h.Reply(from, proto.TrackReply{Result: 0, State: state}.Encode())

	case proto.KindTrackRNG:
		h.Reply(from, proto.TrackReply{Result: a.rng.Int32()}.Encode())

	case proto.KindTrackSwitch:
		a.setSwitch(h, req.NodeA, SwitchDir(req.Dir))
		h.Reply(from, proto.TrackReply{Result: 0}.Encode())

	case proto.KindTrackGetPath:
		result, ok := a.graph.ShortestPath(req.NodeA, req.NodeB, req.AllowReverse, req.Banned)
		if !ok {
			h.Reply(from, proto.TrackReply{Result: -1}.Encode())
			return
		}
		h.Reply(from, proto.TrackReply{
			Result:        0,
			Path:          result.Path,
			Length:        result.Length,
			Reversed:      result.Reversed,
			ReverseAt:     result.ReverseAt,
			ReverseOffset: result.ReverseOffset,
		}.Encode())

	case proto.KindTrackUnreserve:
		a.unreserve(req.TrainID, req.Path)
		h.Reply(from, proto.TrackReply{Result: 0}.Encode())

	case proto.KindTrackTryReserve:
		res := a.tryReserve(h, req.TrainID, req.Path)
		result := int32(0)
		if !res.Granted {
			result = ReservationRefused
		}
		h.Reply(from, proto.TrackReply{Result: result, Length: res.ReservedLength}.Encode())

	case proto.KindTrackCourierComplete:
		h.Reply(from, nil)

	case proto.KindTrackSwitchSubscribe:
		a.subscribers = append(a.subscribers, kernel.TaskID(req.TrainID))
		h.Reply(from, proto.TrackReply{Result: 0}.Encode())

	default:
		h.Reply(from, proto.TrackReply{Result: -1}.Encode())
	}
}

func (a *Authority) setSwitch(h *kernel.Handle, id int16, dir SwitchDir) {
	n, ok := a.graph.Node(id)
	if !ok {
		return
	}
	a.switchDir[id] = dir
	a.sendSwitchCmd(h, SwitchCmd{NodeID: id, Dir: dir})
	if n.Central && n.MirrorOf != NoNode {
		a.switchDir[n.MirrorOf] = dir
		a.sendSwitchCmd(h, SwitchCmd{NodeID: n.MirrorOf, Dir: dir})
	}
	a.publish(h, id, dir)
}

// sendSwitchCmd hands the command to the next courier in round-robin order
// so no single physical switch write can stall the authority's own request
// loop (spec.md §4.7).
func (a *Authority) sendSwitchCmd(h *kernel.Handle, cmd SwitchCmd) {
	worker := a.courierWorkers[a.nextCourier]
	a.nextCourier = (a.nextCourier + 1) % len(a.courierWorkers)
	payload := proto.TrainRequest{Kind: proto.KindTrainSetSwitch, NodeID: cmd.NodeID, Value: byte(cmd.Dir)}.Encode()
	h.Send(worker, payload, nil)
}

func (a *Authority) publish(h *kernel.Handle, node int16, dir SwitchDir) {
	if len(a.subscribers) == 0 {
		return
	}
	payload := proto.TrackReply{Result: 0, State: byte(dir), Path: []int16{node}}.Encode()
	h.Send(a.publisher, encodeNotify(a.subscribers, payload), nil)
}

// tryReserve is TRY_RESERVE's whole two-phase reservation: it walks path in
// order, checking every node's branch/merge/central-junction safety, then
// extends the same check for up to safetyDistanceHops nodes past path's end
// so a train is never granted a slot it cannot safely stop before an
// occupied block. Nothing but wanted is mutated during this check phase --
// reservedBy/reserveDir/switchDir are committed only once the whole
// extended path has passed, which is what makes a refusal leave every
// node's reservation state exactly as it found it (Testable Property #5).
// Grounded on original_source's TRACK_TRY_RESERVE handler.
func (a *Authority) tryReserve(h *kernel.Handle, train int32, path []int16) ReservationResult {
	a.wantClear(train)

	res := ReservationResult{Granted: true}
	for _, node := range path {
		if a.evaluateRobustnessFailed(&res, train, node) {
			break
		}
	}

	if res.Granted && len(path) > 0 {
		cur, ok := a.graph.Node(path[len(path)-1])
		for hops := 0; ok && res.Granted && hops < a.safetyDistanceHops; hops++ {
			next, more := a.advance(cur)
			if !more {
				break
			}
			if a.evaluateRobustnessFailed(&res, train, next.ID) {
				break
			}
			cur = next
		}
	}

	if res.Granted {
		a.wantClear(train)
		res.ReservedLength = a.commit(h, train, path)
	}
	return res
}

// advance follows node's currently-commanded exit (for a switch) or its
// only exit (for anything else), matching the physical route a train
// sitting on node would actually take -- unlike always following
// Next[Straight], which would ignore whichever way the switch is thrown.
func (a *Authority) advance(node Node) (Node, bool) {
	next := node.Next[Straight]
	if node.Kind == KindSwitch {
		next = node.Next[a.switchDir[node.ID]]
	}
	if next == NoNode {
		return Node{}, false
	}
	return a.graph.Node(next)
}

// evaluateRobustnessFailed is TRY_RESERVE's per-node check. It always
// records node as wanted by train first, then refuses (populating res and
// returning true) if node itself is held by another train, if node is a
// switch/merge whose sibling branch is held by another train, or if node
// is a central-junction switch and an exit of any central switch is held
// by another train. Every refusal path probes for a
// two-cycle before giving up. Grounded on original_source's
// evaluate_robustness_failed.
func (a *Authority) evaluateRobustnessFailed(res *ReservationResult, train int32, node int16) bool {
	a.wantAdd(train, node)

	n, ok := a.graph.Node(node)
	if !ok {
		res.Granted = false
		return true
	}

	if !a.canReserve(node, train) {
		if a.detectDeadlock(train, node) {
			res.DeadlockFound = true
		}
		res.Granted = false
		return true
	}

	var conflict int16 = NoNode
	switch n.Kind {
	case KindSwitch:
		conflict = a.branchSafety(n, train)
	case KindMerge:
		if rev, ok := a.graph.Node(n.Reverse); ok {
			conflict = a.branchSafety(rev, train)
		}
	}
	if conflict != NoNode {
		if a.detectDeadlock(train, conflict) {
			res.DeadlockFound = true
		}
		res.Granted = false
		return true
	}

	if a.graph.IsCentral(node) {
		if conflict = a.centralBranchSafety(train); conflict != NoNode {
			for _, c := range a.graph.CentralNodes() {
				a.wantAdd(train, c)
			}
			if a.detectDeadlock(train, conflict) {
				res.DeadlockFound = true
			}
			res.Granted = false
			return true
		}
	}

	return false
}

// canReserve reports whether node is free or already held by train.
func (a *Authority) canReserve(node int16, train int32) bool {
	owner := a.reservedBy[node]
	return owner == NoTrain || owner == train
}

// branchSafety returns the id of n's curved or straight exit if either is
// held by a different train (curved checked first, matching
// original_source's branch_safety), or NoNode if both are clear.
func (a *Authority) branchSafety(n Node, train int32) int16 {
	if c := n.Next[Curved]; c != NoNode && !a.canReserve(c, train) {
		return c
	}
	if s := n.Next[Straight]; s != NoNode && !a.canReserve(s, train) {
		return s
	}
	return NoNode
}

// centralBranchSafety checks branchSafety on every central-junction switch,
// mirroring original_source's central_branch_safety walking all four
// physical central switches regardless of which one triggered the check.
func (a *Authority) centralBranchSafety(train int32) int16 {
	for _, id := range a.graph.CentralNodes() {
		n, ok := a.graph.Node(id)
		if !ok {
			continue
		}
		if c := a.branchSafety(n, train); c != NoNode {
			return c
		}
	}
	return NoNode
}

// detectDeadlock reports whether granting node's current owner's own
// wanted set contains a node train currently holds (directly, or via that
// node's Reverse) -- a two-train wait cycle. node must already be known to
// be held by someone; calling this on a free node is an invariant
// violation; original_source's own detect_deadlock treats it the same way
// with _KernelCrash. Grounded on original_source's detect_deadlock, which
// is explicitly documented (spec.md's Open Question decision) to probe
// two-cycles only, not arbitrary-length wait chains.
func (a *Authority) detectDeadlock(train int32, node int16) bool {
	owner := a.reservedBy[node]
	if owner == NoTrain {
		panic(fmt.Sprintf("track: detectDeadlock probed node %d, which is not reserved by anyone", node))
	}
	for want := range a.wanted[owner] {
		if a.reservedBy[want] == train {
			return true
		}
		if wn, ok := a.graph.Node(want); ok && wn.Reverse != NoNode && a.reservedBy[wn.Reverse] == train {
			return true
		}
	}
	return false
}

func (a *Authority) wantAdd(train int32, node int16) {
	s := a.wanted[train]
	if s == nil {
		s = make(map[int16]struct{})
		a.wanted[train] = s
	}
	s[node] = struct{}{}
}

func (a *Authority) wantClear(train int32) {
	delete(a.wanted, train)
}

// commit grants every node in path to train, throwing whichever switch
// each branch node in the path must be set to for the train to continue
// along it, and returns the physical distance reserved. Only ever called
// once the whole path (and its safety-lookahead extension) has already
// passed evaluateRobustnessFailed -- see tryReserve.
func (a *Authority) commit(h *kernel.Handle, train int32, path []int16) int32 {
	var length int32
	for i, node := range path {
		n, _ := a.graph.Node(node)
		a.grant(node, train)

		if n.Kind == KindSwitch {
			if i+1 >= len(path) {
				panic("track: reserved path ends on a switch with no next node to disambiguate its exit")
			}
			switch path[i+1] {
			case n.Next[Straight]:
				a.setSwitch(h, node, Straight)
				length += n.Distance[Straight]
			case n.Next[Curved]:
				a.setSwitch(h, node, Curved)
				length += n.Distance[Curved]
			default:
				panic("track: reserved path leaves a switch toward neither of its exits")
			}
		} else if i != len(path)-1 {
			length += n.Distance[Straight]
		}
	}
	return length
}

// grant marks node reserved by train, mirroring the same reservation onto
// node's Reverse pair so `reserved_by on a node and its reverse are always
// equal` holds (spec.md §3, Testable Property #6). Grounded on
// original_source's reserve lambda.
func (a *Authority) grant(node int16, train int32) {
	a.reservedBy[node] = train
	a.reserveDir[node] = ReserveDirect
	if n, ok := a.graph.Node(node); ok && n.Reverse != NoNode {
		a.reservedBy[n.Reverse] = train
		a.reserveDir[n.Reverse] = ReserveReverse
	}
}

// release clears node's reservation and its Reverse mirror. Unreserving a
// node train does not hold is an invariant violation, not a recoverable
// error -- spec.md §7 and original_source's cancel_reserve both treat it as
// fatal.
func (a *Authority) release(node int16, train int32) {
	if a.reservedBy[node] != train {
		panic(fmt.Sprintf("track: train %d tried to unreserve node %d, which it does not hold", train, node))
	}
	a.reservedBy[node] = NoTrain
	a.reserveDir[node] = ReserveNone
	if n, ok := a.graph.Node(node); ok && n.Reverse != NoNode {
		a.reservedBy[n.Reverse] = NoTrain
		a.reserveDir[n.Reverse] = ReserveNone
	}
}

// unreserve releases train's hold on every node in path.
func (a *Authority) unreserve(train int32, path []int16) {
	for _, node := range path {
		a.release(node, train)
	}
}
