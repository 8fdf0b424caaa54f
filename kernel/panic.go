package kernel

import (
	"fmt"
	"sync"
)

// CrashInfo describes a fatal kernel invariant violation: the class of bug
// the original assembly kernel would have caught with an assert and halted
// on, not something a caller can recover from.
//
// Grounded on the teacher's PanicInfo (sparkos/kernel/panic.go), generalized
// so the kernel halts its own dispatcher goroutine rather than calling the
// Go runtime's panic, since a single wedged simulated kernel should not take
// down a host process that may also be driving a visualizer or other
// unrelated goroutines.
type CrashInfo struct {
	TaskID  TaskID
	Reason  string
}

func (c CrashInfo) String() string {
	return fmt.Sprintf("kernel crash: task %d: %s", c.TaskID, c.Reason)
}

// CrashHandler is invoked exactly once when the kernel halts. The default
// handler writes to stderr via fmt; tests and the boot glue may install
// their own to capture the crash instead.
type CrashHandler func(CrashInfo)

var (
	crashMu      sync.Mutex
	crashHandler CrashHandler = defaultCrashHandler
)

func defaultCrashHandler(info CrashInfo) {
	fmt.Println(info.String())
}

// SetCrashHandler installs the handler invoked when the kernel crashes.
func SetCrashHandler(h CrashHandler) {
	crashMu.Lock()
	defer crashMu.Unlock()
	if h == nil {
		h = defaultCrashHandler
	}
	crashHandler = h
}

// fatal reports a crash once and marks the kernel crashed. Every call site
// inside the dispatcher loop must itself stop processing immediately after
// calling fatal (it does not unwind control flow for them) -- Run checks
// k.isCrashed() on every iteration and returns as soon as it is set, so no
// further state mutation happens after a crash. This is equivalent to "the
// kernel prints a diagnostic and halts" (spec's error-handling design for
// impossible conditions).
func (k *Kernel) fatal(taskID TaskID, reason string) {
	crashMu.Lock()
	h := crashHandler
	crashMu.Unlock()

	info := CrashInfo{TaskID: taskID, Reason: reason}
	k.crashOnce.Do(func() {
		k.crashInfo = info
		h(info)
		close(k.crashed)
	})
}

func (k *Kernel) isCrashed() bool {
	select {
	case <-k.crashed:
		return true
	default:
		return false
	}
}
