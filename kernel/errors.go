package kernel

// Result is the typed-failure half of the two-tier error model: every
// ordinary syscall failure an idiomatic Go caller can recover from (a bad
// target id, a stale reply) is one of these values rather than a panic.
// Grounded on the teacher's SendResult enum (sparkos/kernel/kernel.go).
type Result int32

const (
	// OK is returned as a nil error; it exists only so Result's String
	// method can describe a success code if one is ever logged.
	OK Result = 0
	// ErrNoSuchTask means the target id has never been allocated, or was
	// allocated and has since exited (Zombie). Both cases are
	// indistinguishable to the caller by design -- see the Open Questions
	// section of SPEC_FULL.md.
	ErrNoSuchTask Result = -1
	// ErrNotWaitingForReply means Reply was called against a task that
	// is not currently ReplyBlock -- either it never sent to this
	// replier, or a previous Reply already satisfied it (the
	// at-most-one-reply invariant).
	ErrNotWaitingForReply Result = -2
	// ErrPoolExhausted means Create was called with every task slot
	// already allocated.
	ErrPoolExhausted Result = -3
	// ErrInvalidPriority means Create was called with a priority outside
	// [0, NumPriorities).
	ErrInvalidPriority Result = -4
	// ErrTargetExited means a Send's target exited (via Exit) before ever
	// calling Reply -- the "-2" result spec.md's Send syscall table lists
	// separately from NO_SUCH_TASK, which only covers the target being
	// absent at Send time. Given its own value here (rather than reusing
	// ErrNotWaitingForReply's -2) because that code means something
	// different on Reply's own error path and a Sender must never see it.
	ErrTargetExited Result = -5
)

func (r Result) Error() string { return r.String() }

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case ErrNoSuchTask:
		return "NO_SUCH_TASK"
	case ErrNotWaitingForReply:
		return "NOT_WAITING_FOR_REPLY"
	case ErrPoolExhausted:
		return "POOL_EXHAUSTED"
	case ErrInvalidPriority:
		return "INVALID_PRIORITY"
	case ErrTargetExited:
		return "TARGET_EXITED"
	default:
		return "UNKNOWN_RESULT"
	}
}
