package kernel

import "runtime"

type reqKind int

const (
	reqCreate reqKind = iota
	reqMyTid
	reqMyParentTid
	reqYield
	reqExit
	reqSend
	reqReceive
	reqReply
	reqAwaitEvent
)

type request struct {
	taskID TaskID
	kind   reqKind

	// Create
	priority int
	entry    func(*Handle)

	// Send / Reply
	to  TaskID
	msg []byte

	// Send (reply destination) / Receive (message destination)
	buf []byte

	// AwaitEvent
	eventID EventID
}

// Handle is a task's private capability for calling into the kernel. Every
// method blocks the calling goroutine until the dispatcher has processed
// the request and scheduled this task to run again -- the Go mirror of the
// original kernel's to_kernel() trap.
type Handle struct {
	k  *Kernel
	id TaskID
}

// TaskID returns the id of the task this handle belongs to.
func (h *Handle) TaskID() TaskID { return h.id }

func (h *Handle) submit(req request) int32 {
	req.taskID = h.id
	h.k.reqCh <- req
	return <-h.k.tasks[h.id].resume
}

// MyTid returns the caller's own task id.
func (h *Handle) MyTid() TaskID {
	return TaskID(h.submit(request{kind: reqMyTid}))
}

// MyParentTid returns the id of the task that created the caller (even if
// that task has since exited), or NoTask for a task created by Boot.
func (h *Handle) MyParentTid() TaskID {
	return TaskID(h.submit(request{kind: reqMyParentTid}))
}

// Create allocates a new task at the given priority running entry, and
// returns its id, or a negative Result on failure (ErrPoolExhausted,
// ErrInvalidPriority).
func (h *Handle) Create(priority int, entry func(*Handle)) (TaskID, error) {
	ret := h.submit(request{kind: reqCreate, priority: priority, entry: entry})
	if ret < 0 {
		return NoTask, Result(ret)
	}
	return TaskID(ret), nil
}

// Yield gives up the CPU without blocking; the caller is simply placed at
// the tail of its own priority queue.
func (h *Handle) Yield() {
	h.submit(request{kind: reqYield})
}

// Exit terminates the caller. It does not return.
func (h *Handle) Exit() {
	h.k.reqCh <- request{taskID: h.id, kind: reqExit}
	runtime.Goexit()
}

// Send delivers msg to task to and blocks until to calls Reply, copying at
// most len(replyBuf) bytes of the reply into replyBuf. It returns the
// number of bytes copied into replyBuf.
func (h *Handle) Send(to TaskID, msg []byte, replyBuf []byte) (int, error) {
	ret := h.submit(request{kind: reqSend, to: to, msg: msg, buf: replyBuf})
	if ret < 0 {
		return 0, Result(ret)
	}
	return int(ret), nil
}

// Receive blocks until a message arrives, copying at most len(buf) bytes of
// it into buf and returning the sender's id and the number of bytes copied.
func (h *Handle) Receive(buf []byte) (TaskID, int) {
	ret := h.submit(request{kind: reqReceive, buf: buf})
	t := h.k.tasks[h.id]
	return t.lastFrom, int(ret)
}

// Reply delivers msg to the task that previously Sent to the caller and is
// still waiting for a reply, copying at most as many bytes as that task's
// own reply buffer can hold. Fails with ErrNoSuchTask or
// ErrNotWaitingForReply.
func (h *Handle) Reply(to TaskID, msg []byte) error {
	ret := h.submit(request{kind: reqReply, to: to, msg: msg})
	if ret < 0 {
		return Result(ret)
	}
	return nil
}

// AwaitEvent blocks until the named interrupt next fires.
func (h *Handle) AwaitEvent(ev EventID) {
	h.submit(request{kind: reqAwaitEvent, eventID: ev})
}

func (k *Kernel) handleRequest(req request) {
	t := k.tasks[req.taskID]
	t.interrupted = false

	switch req.kind {
	case reqCreate:
		k.handleCreate(t, req)
	case reqMyTid:
		t.pendingReturn = int32(t.id)
		k.ready(t)
	case reqMyParentTid:
		t.pendingReturn = int32(t.parentID)
		k.ready(t)
	case reqYield:
		t.pendingReturn = 0
		k.ready(t)
	case reqExit:
		k.handleExit(t)
	case reqSend:
		k.handleSend(t, req)
	case reqReceive:
		k.handleReceive(t, req)
	case reqReply:
		k.handleReply(t, req)
	case reqAwaitEvent:
		k.handleAwaitEvent(t, req)
	default:
		k.fatal(t.id, "unknown request kind")
	}
}

func (k *Kernel) ready(t *tcb) {
	t.state = Ready
	k.sched.add(t.priority, t.id)
}

func (k *Kernel) handleCreate(t *tcb, req request) {
	if req.priority < 0 || req.priority >= k.cfg.NumPriorities {
		t.pendingReturn = int32(ErrInvalidPriority)
		k.ready(t)
		return
	}
	child := k.createTask(t.id, req.priority, req.entry)
	if child == NoTask {
		t.pendingReturn = int32(ErrPoolExhausted)
	} else {
		t.pendingReturn = int32(child)
	}
	k.ready(t)
}

func (k *Kernel) handleExit(t *tcb) {
	t.state = Zombie
	t.entry = nil

	// Every task blocked in Send against t -- whether its message is
	// still sitting unconsumed in t's inbox (SendBlock) or was already
	// received and is only waiting on Reply (ReplyBlock) -- would
	// otherwise hang forever, since t will never run again.
	for _, other := range k.tasks {
		if other == nil || other.id == t.id {
			continue
		}
		if (other.state == SendBlock || other.state == ReplyBlock) && other.waitingOn == t.id {
			other.pendingReturn = int32(ErrTargetExited)
			other.waitingOn = NoTask
			other.replyBuf = nil
			k.ready(other)
		}
	}
}

func (k *Kernel) validTarget(id TaskID) (*tcb, bool) {
	if id < 0 || int(id) >= len(k.tasks) {
		return nil, false
	}
	target := k.tasks[id]
	if target == nil || target.state == Zombie || target.state == Free {
		return nil, false
	}
	return target, true
}

func (k *Kernel) handleSend(t *tcb, req request) {
	target, ok := k.validTarget(req.to)
	if !ok {
		t.pendingReturn = int32(ErrNoSuchTask)
		k.ready(t)
		return
	}

	if target.state == ReceiveBlock {
		n := copyTrunc(target.recvBuf, req.msg)
		target.lastFrom = t.id
		target.pendingReturn = int32(n)
		target.recvBuf = nil
		k.ready(target)

		t.state = ReplyBlock
		t.waitingOn = target.id
		t.replyBuf = req.buf
		return
	}

	msgCopy := make([]byte, len(req.msg))
	copy(msgCopy, req.msg)
	target.inbox = append(target.inbox, inboxMsg{from: t.id, data: msgCopy})

	t.state = SendBlock
	t.waitingOn = target.id
	t.replyBuf = req.buf
}

func (k *Kernel) handleReceive(t *tcb, req request) {
	if len(t.inbox) > 0 {
		m := t.inbox[0]
		t.inbox = t.inbox[1:]
		n := copyTrunc(req.buf, m.data)
		t.lastFrom = m.from
		t.pendingReturn = int32(n)
		k.ready(t)

		sender := k.tasks[m.from]
		if sender != nil && sender.state == SendBlock {
			sender.state = ReplyBlock
			sender.waitingOn = t.id
		}
		return
	}

	t.state = ReceiveBlock
	t.recvBuf = req.buf
}

func (k *Kernel) handleReply(t *tcb, req request) {
	target, ok := k.validTarget(req.to)
	if !ok || target.state != ReplyBlock {
		if ok {
			t.pendingReturn = int32(ErrNotWaitingForReply)
		} else {
			t.pendingReturn = int32(ErrNoSuchTask)
		}
		k.ready(t)
		return
	}

	n := copyTrunc(target.replyBuf, req.msg)
	target.pendingReturn = int32(n)
	target.replyBuf = nil
	target.waitingOn = NoTask
	k.ready(target)

	t.pendingReturn = 0
	k.ready(t)
}

func (k *Kernel) handleAwaitEvent(t *tcb, req request) {
	k.eventSlot[req.eventID] = t.id
	t.state = EventBlock
	t.eventID = req.eventID
}
