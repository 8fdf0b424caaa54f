package kernel

import (
	"context"
	"testing"
	"time"
)

// runFor starts the dispatcher and returns a cancel func. Tests drive it
// with a generous deadline rather than a fixed tick count since the
// dispatcher is otherwise event-driven.
func runFor(t *testing.T, k *Kernel) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	go k.Run(ctx)
	return cancel
}

// TestSchedulingOrder reproduces the classic priority scenario: a root task
// at priority 1 creates two higher-priority children (who must run and
// exit before root continues) and two lower-priority children (who must
// not run until root itself blocks). Because the kernel guarantees only
// one task is ever truly executing Go code at a time, appending to a plain
// slice from inside task bodies is safe without synchronization -- every
// append happens strictly before the next task is woken.
//
// Task bodies here and below never block on a plain Go channel that only
// another task can unblock: doing so would starve the dispatcher, which is
// waiting on exactly one active task's next kernel call at a time. Cross-
// task ordering is instead established the way real callers would, through
// Send/Receive/Reply, or (in these tests) by capturing the id Boot/Create
// hand back synchronously rather than having a task announce its own id.
func TestSchedulingOrder(t *testing.T) {
	k := New(DefaultConfig())
	var order []string
	done := make(chan struct{})

	root := func(h *Handle) {
		h.Create(0, func(h *Handle) { order = append(order, "C3"); h.Exit() })
		h.Create(0, func(h *Handle) { order = append(order, "C4"); h.Exit() })
		h.Create(2, func(h *Handle) { order = append(order, "C1"); h.Exit() })
		h.Create(2, func(h *Handle) { order = append(order, "C2"); close(done); h.Exit() })
		order = append(order, "root")
		h.Exit()
	}
	k.Boot(1, root)

	cancel := runFor(t, k)
	defer cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("root task never completed")
	}

	want := []string{"C3", "C4", "root", "C1", "C2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestSendReceiveReplyTruncation covers the rendezvous truncation rule: the
// copied length is min(len(sent), len(receiver buffer)) on delivery and
// min(len(reply), len(reply buffer)) on reply.
func TestSendReceiveReplyTruncation(t *testing.T) {
	k := New(DefaultConfig())
	results := make(chan int, 1)

	server := func(h *Handle) {
		buf := make([]byte, 3)
		from, n := h.Receive(buf)
		if n != 3 {
			t.Errorf("server received n=%d, want 3 (truncated from 5)", n)
		}
		h.Reply(from, []byte("world!"))
		h.Exit()
	}
	serverID := k.Boot(1, server)

	k.Boot(1, func(h *Handle) {
		replyBuf := make([]byte, 2)
		n, err := h.Send(serverID, []byte("hello"), replyBuf)
		if err != nil {
			t.Errorf("Send: %v", err)
		}
		results <- n
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case n := <-results:
		if n != 2 {
			t.Fatalf("client reply copy = %d, want 2 (truncated from 6 into a 2-byte buffer)", n)
		}
	case <-time.After(time.Second):
		t.Fatal("rendezvous never completed")
	}
}

// TestAtMostOneReply ensures a second Reply against a task that has already
// been replied to fails with ErrNotWaitingForReply.
func TestAtMostOneReply(t *testing.T) {
	k := New(DefaultConfig())
	done := make(chan error, 1)

	server := func(h *Handle) {
		from, _ := h.Receive(nil)
		if err := h.Reply(from, nil); err != nil {
			done <- err
			h.Exit()
			return
		}
		done <- h.Reply(from, nil)
		h.Exit()
	}
	serverID := k.Boot(1, server)

	k.Boot(2, func(h *Handle) {
		h.Send(serverID, []byte("x"), nil)
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case err := <-done:
		if err != ErrNotWaitingForReply {
			t.Fatalf("second Reply = %v, want ErrNotWaitingForReply", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server never finished")
	}
}

// TestSendToUnknownTask covers the NO_SUCH_TASK path for both an id that
// has already exited and one that was never allocated.
func TestSendToUnknownTask(t *testing.T) {
	k := New(DefaultConfig())
	results := make(chan error, 2)

	root := func(h *Handle) {
		exited, _ := h.Create(1, func(h *Handle) { h.Exit() })
		h.Yield()
		h.Yield()

		_, err := h.Send(exited, nil, nil)
		results <- err

		_, err = h.Send(TaskID(999), nil, nil)
		results <- err

		h.Exit()
	}
	k.Boot(1, root)

	cancel := runFor(t, k)
	defer cancel()

	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			if err != ErrNoSuchTask {
				t.Fatalf("Send to invalid target = %v, want ErrNoSuchTask", err)
			}
		case <-time.After(time.Second):
			t.Fatal("root never finished")
		}
	}
}

// TestInboxFIFO checks that messages from multiple senders to a single
// server are received in send order: the first is handed straight to the
// receive-blocked server, the second waits in its inbox until the next
// Receive.
func TestInboxFIFO(t *testing.T) {
	k := New(DefaultConfig())
	result := make(chan []byte, 1)

	server := func(h *Handle) {
		var order []byte
		for i := 0; i < 2; i++ {
			buf := make([]byte, 1)
			from, _ := h.Receive(buf)
			order = append(order, buf[0])
			h.Reply(from, nil)
		}
		result <- order
		h.Exit()
	}
	serverID := k.Boot(1, server)

	k.Boot(1, func(h *Handle) {
		h.Send(serverID, []byte{1}, nil)
		h.Exit()
	})
	k.Boot(1, func(h *Handle) {
		h.Send(serverID, []byte{2}, nil)
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case order := <-result:
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Fatalf("receive order = %v, want [1 2]", order)
		}
	case <-time.After(time.Second):
		t.Fatal("server never finished")
	}
}

// TestAwaitEventWakesOnInterrupt checks that a task blocked in AwaitEvent is
// woken only once its event fires.
func TestAwaitEventWakesOnInterrupt(t *testing.T) {
	k := New(DefaultConfig())
	woken := make(chan struct{})

	k.Boot(1, func(h *Handle) {
		h.AwaitEvent(EventTimerTick)
		close(woken)
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case <-woken:
		t.Fatal("task woke before any interrupt was injected")
	case <-time.After(50 * time.Millisecond):
	}

	k.Interrupt(Interrupt{Event: EventTimerTick})

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("task never woke on timer interrupt")
	}
}

// TestSendUnblocksWhenTargetExitsBeforeReceive covers a sender whose
// message is still sitting unconsumed in the target's inbox (SendBlock)
// when the target exits without ever calling Receive.
func TestSendUnblocksWhenTargetExitsBeforeReceive(t *testing.T) {
	k := New(DefaultConfig())
	results := make(chan error, 1)

	target := k.Boot(2, func(h *Handle) { h.Exit() })
	k.Boot(1, func(h *Handle) {
		_, err := h.Send(target, []byte("hi"), nil)
		results <- err
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case err := <-results:
		if err != ErrTargetExited {
			t.Fatalf("Send to a target that exited unreceived = %v, want ErrTargetExited", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sender never unblocked")
	}
}

// TestSendUnblocksWhenTargetExitsBeforeReply covers a sender whose message
// was already Received (ReplyBlock) when the target exits without ever
// calling Reply.
func TestSendUnblocksWhenTargetExitsBeforeReply(t *testing.T) {
	k := New(DefaultConfig())
	results := make(chan error, 1)

	target := k.Boot(2, func(h *Handle) {
		buf := make([]byte, 8)
		h.Receive(buf)
		h.Exit()
	})
	k.Boot(1, func(h *Handle) {
		_, err := h.Send(target, []byte("hi"), nil)
		results <- err
		h.Exit()
	})

	cancel := runFor(t, k)
	defer cancel()

	select {
	case err := <-results:
		if err != ErrTargetExited {
			t.Fatalf("Send to a target that exited after receiving = %v, want ErrTargetExited", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sender never unblocked")
	}
}
