package courier

import (
	"context"
	"encoding/binary"
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

func encodeInt(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func decodeInt(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// TestSpawnCreatesCapacityWorkers checks Spawn returns exactly Capacity
// distinct task ids.
func TestSpawnCreatesCapacityWorkers(t *testing.T) {
	k := kernel.New(kernel.DefaultConfig())
	done := make(chan int, 1)
	k.Boot(1, func(h *kernel.Handle) {
		pool := &Pool[int32]{
			Capacity:   3,
			Priority:   2,
			Parent:     h.MyTid(),
			Downstream: h.MyTid(),
			Decode:     func(b []byte) int32 { return decodeInt(b) },
			Encode:     func(v int32) []byte { return encodeInt(v) },
			Complete:   func(v int32, reply []byte) []byte { return encodeInt(v) },
		}
		ids, err := pool.Spawn(h)
		if err != nil {
			done <- -1
			h.Exit()
			return
		}
		seen := map[kernel.TaskID]bool{}
		for _, id := range ids {
			seen[id] = true
		}
		done <- len(seen)
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case n := <-done:
		if n != 3 {
			t.Fatalf("Spawn produced %d distinct workers, want 3", n)
		}
	case <-time.After(time.Second):
		t.Fatal("test task never completed")
	}
}

// TestWorkerForwardsAndReportsCompletion drives one request through a
// worker end to end: the caller gets an immediate empty reply, the
// downstream server sees the decoded+re-encoded request, and the parent
// receives a completion message once downstream replies.
func TestWorkerForwardsAndReportsCompletion(t *testing.T) {
	k := kernel.New(kernel.DefaultConfig())

	downstreamSeen := make(chan int32, 1)
	downID := k.Boot(2, func(h *kernel.Handle) {
		buf := make([]byte, kernel.MaxMessageBytes)
		from, n := h.Receive(buf)
		downstreamSeen <- decodeInt(buf[:n])
		h.Reply(from, encodeInt(99))
	})

	parentDone := make(chan int32, 1)
	k.Boot(1, func(h *kernel.Handle) {
		pool := &Pool[int32]{
			Capacity:   1,
			Priority:   2,
			Parent:     h.MyTid(),
			Downstream: downID,
			Decode:     func(b []byte) int32 { return decodeInt(b) },
			Encode:     func(v int32) []byte { return encodeInt(v) },
			Complete: func(v int32, reply []byte) []byte {
				return encodeInt(v + decodeInt(reply))
			},
		}
		ids, err := pool.Spawn(h)
		if err != nil || len(ids) != 1 {
			h.Exit()
			return
		}
		worker := ids[0]

		callerDone := make(chan struct{})
		h.Create(2, func(h2 *kernel.Handle) {
			h2.Send(worker, encodeInt(7), nil)
			close(callerDone)
			h2.Exit()
		})

		buf := make([]byte, kernel.MaxMessageBytes)
		from, n := h.Receive(buf)
		h.Reply(from, nil)
		parentDone <- decodeInt(buf[:n])
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case got := <-downstreamSeen:
		if got != 7 {
			t.Fatalf("downstream saw %d, want 7", got)
		}
	case <-time.After(time.Second):
		t.Fatal("downstream never received the forwarded request")
	}

	select {
	case got := <-parentDone:
		if got != 7+99 {
			t.Fatalf("parent completion = %d, want %d", got, 7+99)
		}
	case <-time.After(time.Second):
		t.Fatal("parent never received a completion")
	}
}
