package track

import (
	"context"
	"testing"
	"time"

	"trainctl/kernel"
)

func runFor(t *testing.T, k *kernel.Kernel) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	go k.Run(ctx)
	return cancel
}

// chainGraph is a straight run of n Sensor nodes with no switches and no
// reverse pairs, plain enough to exercise reservation bookkeeping without
// path-finding getting in the way.
func chainGraph(n int) *Graph {
	nodes := make([]Node, n)
	for i := 0; i < n; i++ {
		kind := KindSensor
		if i == 0 {
			kind = KindEnter
		} else if i == n-1 {
			kind = KindExit
		}
		next := int16(NoNode)
		if i+1 < n {
			next = int16(i + 1)
		}
		nodes[i] = Node{ID: int16(i), Name: string(rune('a' + i)), Kind: kind, Next: [2]int16{next, NoNode}, Reverse: NoNode}
	}
	return NewGraph(nodes)
}

// TestTryReserveGrantsWholePathAtomically covers scenario S4: a clear path
// is granted to the requesting train on every node at once.
func TestTryReserveGrantsWholePathAtomically(t *testing.T) {
	g := chainGraph(5)
	a := NewAuthority(g, kernel.NoTask, 0)
	k := kernel.New(kernel.DefaultConfig())
	authID := k.Boot(1, a.Run)

	done := make(chan bool, 1)
	k.Boot(2, func(h *kernel.Handle) {
		path := []int16{0, 1, 2, 3, 4}
		res, ok := TryReserve(h, authID, 7, path)
		if !ok || !res.Granted {
			done <- false
			h.Exit()
			return
		}
		allHeld := true
		for _, n := range path {
			if a.reservedBy[n] != 7 {
				allHeld = false
			}
		}
		done <- allHeld
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected every node in the path to be held by train 7")
		}
	case <-time.After(time.Second):
		t.Fatal("driver task never finished")
	}
}

// TestTryReserveRefusalLeavesNoPartialState covers scenario S5 and Testable
// Property #5: when a node partway through the path is already held by
// another train, the whole reservation is refused and every node that
// would otherwise have been grantable is left untouched, not held.
func TestTryReserveRefusalLeavesNoPartialState(t *testing.T) {
	g := chainGraph(5)
	a := NewAuthority(g, kernel.NoTask, 0)
	k := kernel.New(kernel.DefaultConfig())
	authID := k.Boot(1, a.Run)

	done := make(chan bool, 1)
	k.Boot(2, func(h *kernel.Handle) {
		// Node 2 belongs to another train before the contested attempt.
		if res, ok := TryReserve(h, authID, 99, []int16{2}); !ok || !res.Granted {
			done <- false
			h.Exit()
			return
		}

		res, ok := TryReserve(h, authID, 7, []int16{0, 1, 2, 3, 4})
		if !ok || res.Granted {
			done <- false
			h.Exit()
			return
		}

		untouched := a.reservedBy[0] == NoTrain && a.reservedBy[1] == NoTrain &&
			a.reservedBy[2] == 99 && a.reservedBy[3] == NoTrain && a.reservedBy[4] == NoTrain
		done <- untouched
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected a refused reservation to leave every node's reserved_by exactly as it found it")
		}
	case <-time.After(time.Second):
		t.Fatal("driver task never finished")
	}
}

// mirroredPairGraph is two Sensor nodes that are each other's Reverse.
func mirroredPairGraph() *Graph {
	nodes := []Node{
		{ID: 0, Name: "fwd", Kind: KindSensor, Next: [2]int16{NoNode, NoNode}, Reverse: 1},
		{ID: 1, Name: "rev", Kind: KindSensor, Next: [2]int16{NoNode, NoNode}, Reverse: 0},
	}
	return NewGraph(nodes)
}

// TestReservationMirrorsOntoReverseNode covers Testable Property #6:
// reserved_by on a node and its reverse are always equal, both on grant
// and on release.
func TestReservationMirrorsOntoReverseNode(t *testing.T) {
	g := mirroredPairGraph()
	a := NewAuthority(g, kernel.NoTask, 0)
	k := kernel.New(kernel.DefaultConfig())
	authID := k.Boot(1, a.Run)

	done := make(chan string, 1)
	k.Boot(2, func(h *kernel.Handle) {
		res, ok := TryReserve(h, authID, 3, []int16{0})
		if !ok || !res.Granted {
			done <- "reservation refused"
			h.Exit()
			return
		}
		if a.reservedBy[0] != 3 || a.reservedBy[1] != 3 {
			done <- "grant did not mirror onto the reverse node"
			h.Exit()
			return
		}
		if a.reserveDir[0] != ReserveDirect || a.reserveDir[1] != ReserveReverse {
			done <- "reserve_dir was not set to DIRECT/REVERSE on the mirrored pair"
			h.Exit()
			return
		}

		Unreserve(h, authID, 3, []int16{0})
		if a.reservedBy[0] != NoTrain || a.reservedBy[1] != NoTrain {
			done <- "release did not clear the reverse node's reservation"
			h.Exit()
			return
		}
		done <- ""
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case failure := <-done:
		if failure != "" {
			t.Fatal(failure)
		}
	case <-time.After(time.Second):
		t.Fatal("driver task never finished")
	}
}

// TestDetectDeadlockTwoCycle covers scenario S6: train A holds x and wants
// y, train B holds y and wants x -- a two-cycle -- and TryReserve must
// report it instead of merely refusing silently.
func TestDetectDeadlockTwoCycle(t *testing.T) {
	g := chainGraph(2) // node 0 = x, node 1 = y, unconnected in practice here
	a := NewAuthority(g, kernel.NoTask, 0)
	k := kernel.New(kernel.DefaultConfig())
	k.Boot(1, a.Run)

	done := make(chan bool, 1)
	k.Boot(2, func(h *kernel.Handle) {
		const trainA, trainB = 1, 2

		if !a.tryReserve(h, trainA, []int16{0}).Granted {
			done <- false
			h.Exit()
			return
		}
		if !a.tryReserve(h, trainB, []int16{1}).Granted {
			done <- false
			h.Exit()
			return
		}

		// B now wants x (held by A) and fails; this records B as wanting x.
		if a.tryReserve(h, trainB, []int16{0}).Granted {
			done <- false
			h.Exit()
			return
		}

		// A now wants y (held by B), and B already wants x (held by A):
		// a two-cycle.
		res := a.tryReserve(h, trainA, []int16{1})
		done <- !res.Granted && res.DeadlockFound
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected the second refusal to report a detected deadlock")
		}
	case <-time.After(time.Second):
		t.Fatal("driver task never finished")
	}
}

// TestUnreserveOfNodeNotHeldPanics covers spec.md §7: unreserving a node
// the caller does not hold is an invariant violation, not a recoverable
// refusal.
func TestUnreserveOfNodeNotHeldPanics(t *testing.T) {
	g := chainGraph(1)
	a := NewAuthority(g, kernel.NoTask, 0)
	k := kernel.New(kernel.DefaultConfig())
	k.Boot(1, a.Run)

	done := make(chan bool, 1)
	k.Boot(2, func(h *kernel.Handle) {
		defer func() {
			done <- recover() != nil
		}()
		a.unreserve(5, []int16{0})
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case panicked := <-done:
		if !panicked {
			t.Fatal("expected unreserving an unheld node to panic")
		}
	case <-time.After(time.Second):
		t.Fatal("driver task never finished")
	}
}
