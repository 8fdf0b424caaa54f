// Package courier implements the forwarding-pool pattern: a fixed set of
// worker tasks that let a server hand off a blocking downstream Send
// without ever blocking its own request loop.
//
// Grounded line-for-line on the original kernel's track_courier
// (_examples/original_source/src/server/track_server.cc): receive one
// request, reply immediately with an empty message to unblock the caller,
// forward the decoded request to a downstream server, then report
// completion back to the parent that owns the pool.
package courier

import "trainctl/kernel"

// Pool spawns Capacity worker tasks that each run the receive/reply-empty/
// forward/complete loop for one request kind Req at a time.
type Pool[Req any] struct {
	// Capacity is the number of courier tasks to spawn. Sized so a
	// parent server never has to block waiting for a free courier in
	// practice (see spec.md §4.7's invariant on courier availability).
	Capacity int
	// Priority is the scheduler priority every courier task runs at.
	Priority int
	// Parent is the server the pool forwards completions back to.
	Parent kernel.TaskID
	// Downstream is the server every decoded request is forwarded to.
	Downstream kernel.TaskID

	// Decode turns the raw bytes handed to a courier into a Req.
	Decode func(msg []byte) Req
	// Encode turns a Req into the bytes sent to Downstream.
	Encode func(req Req) []byte
	// Complete builds the payload sent back to Parent once Downstream has
	// replied. reply is Downstream's raw reply bytes.
	Complete func(req Req, reply []byte) []byte
}

// Spawn creates the pool's worker tasks and returns their ids.
func (p *Pool[Req]) Spawn(h *kernel.Handle) ([]kernel.TaskID, error) {
	ids := make([]kernel.TaskID, 0, p.Capacity)
	for i := 0; i < p.Capacity; i++ {
		id, err := h.Create(p.Priority, p.worker)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *Pool[Req]) worker(h *kernel.Handle) {
	inbuf := make([]byte, kernel.MaxMessageBytes)
	replyBuf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(inbuf)
		// Reply empty immediately: the caller only needed to hand off
		// the request, not wait for it to complete.
		h.Reply(from, nil)

		req := p.Decode(inbuf[:n])
		rn, _ := h.Send(p.Downstream, p.Encode(req), replyBuf)

		h.Send(p.Parent, p.Complete(req, replyBuf[:rn]), nil)
	}
}
