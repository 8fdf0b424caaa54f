// Package kernel implements the priority-preemptive rendezvous kernel: a
// fixed task pool, a strict-priority FIFO scheduler, and the three-phase
// Send/Receive/Reply primitive that every server and client in this repo
// is built on.
//
// The kernel runs as a single goroutine (the dispatcher) that owns every
// task-control-block field. User tasks run on their own goroutines but are
// only ever one-at-a-time "active": a task goroutine blocks on its private
// resume channel immediately after issuing a request, and is only unblocked
// again once the dispatcher has chosen it to run next. This reproduces the
// "exactly one ACTIVE task" invariant of the original assembly kernel
// without touching unsafe stack-switching machinery.
package kernel

// TaskID identifies a task for its entire lifetime. IDs are handed out in
// increasing order starting at 0 and are never reused, even after a task
// exits.
type TaskID int32

// NoTask is the sentinel returned by the scheduler when no task is ready,
// and used as the "absent" value in TCB fields that reference another task.
const NoTask TaskID = -1

// State is the lifecycle state of a task control block.
type State int

const (
	// Free marks a task-pool slot that has never been allocated.
	Free State = iota
	// Ready means the task sits in a scheduler queue waiting for the CPU.
	Ready
	// Active means the task currently owns the CPU. At most one TCB is
	// ever in this state.
	Active
	// ReceiveBlock means the task called Receive and found no waiting
	// sender; it is parked until one arrives.
	ReceiveBlock
	// SendBlock means the task called Send and the target was not
	// receive-blocked; its message sits in the target's inbox.
	SendBlock
	// ReplyBlock means the task's message was delivered (directly or via
	// inbox) and it is waiting for the receiver's Reply.
	ReplyBlock
	// EventBlock means the task called AwaitEvent and is waiting for a
	// matching interrupt.
	EventBlock
	// Zombie means the task has exited. The slot is never reused.
	Zombie
)

func (s State) String() string {
	switch s {
	case Free:
		return "FREE"
	case Ready:
		return "READY"
	case Active:
		return "ACTIVE"
	case ReceiveBlock:
		return "RECEIVE_BLOCK"
	case SendBlock:
		return "SEND_BLOCK"
	case ReplyBlock:
		return "REPLY_BLOCK"
	case EventBlock:
		return "EVENT_BLOCK"
	case Zombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// inboxMsg is one pending Send sitting in a task's inbox, waiting for the
// owner to call Receive.
type inboxMsg struct {
	from TaskID
	data []byte
}

// tcb is the kernel's private bookkeeping for one task. Only the dispatcher
// goroutine ever reads or writes a tcb's fields once the task has been
// created; the owning task goroutine only ever touches its own resume
// channel and the fields the dispatcher guarantees are stable at the moment
// it wakes the task (lastFrom/pendingReturn).
type tcb struct {
	id       TaskID
	parentID TaskID
	priority int
	state    State
	interrupted bool

	inbox []inboxMsg

	// waitingOn is the counterpart task for SendBlock/ReplyBlock
	// bookkeeping (who this task is blocked against).
	waitingOn TaskID

	// recvBuf is set while ReceiveBlock: the caller's
	// destination buffer, ready to be filled the moment a sender arrives.
	recvBuf []byte

	// replyBuf is the caller's own reply-destination buffer, recorded at
	// Send time and consulted when the eventual Reply arrives.
	replyBuf []byte

	// eventID is set while EventBlock.
	eventID EventID

	// lastFrom carries the sender id of a completed Receive, read by the
	// task's own goroutine immediately after being woken. pendingReturn
	// carries every other numeric result (Create's new id, Send/Receive's
	// copied length, a Result error code).
	lastFrom      TaskID
	pendingReturn int32

	resume chan int32
	entry  func(*Handle)
}
