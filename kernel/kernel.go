package kernel

import (
	"context"
	"sync"
)

// Config sizes the fixed pools the kernel allocates once at boot. There is
// no allocation of any of these structures after New returns.
type Config struct {
	// MaxTasks bounds the task pool. Create returns ErrPoolExhausted once
	// this many tasks have ever been allocated.
	MaxTasks int
	// NumPriorities is the number of scheduler levels, 0 being most
	// urgent. Matches the original kernel's NUM_PRIORITIES.
	NumPriorities int
	// InboxCapacity is advisory: the expected high-water mark for a
	// task's pending-Send queue, used by servers to size their own
	// receive loops. The inbox itself is a Go slice, not a fixed ring --
	// see DESIGN.md for why a literal no-allocation inbox was not worth
	// the loss of idiom here.
	InboxCapacity int
}

// DefaultConfig mirrors the original kernel's scheduler.h sizing.
func DefaultConfig() Config {
	return Config{
		MaxTasks:      64,
		NumPriorities: 4,
		InboxCapacity: 16,
	}
}

// Kernel is the dispatcher: the single goroutine that owns every task
// control block and processes exactly one request at a time.
type Kernel struct {
	cfg Config

	tasks    []*tcb
	nextID   TaskID
	sched    *scheduler
	eventSlot []TaskID

	ticks uint64

	activeID TaskID

	reqCh       chan request
	interruptCh chan Interrupt

	crashOnce sync.Once
	crashed   chan struct{}
	crashInfo CrashInfo
}

// New allocates the fixed task pool and scheduler queues. No task exists
// yet; call Boot to create the first one before Run.
func New(cfg Config) *Kernel {
	k := &Kernel{
		cfg:         cfg,
		tasks:       make([]*tcb, cfg.MaxTasks),
		nextID:      0,
		sched:       newScheduler(cfg.NumPriorities, cfg.MaxTasks),
		eventSlot:   make([]TaskID, numEvents),
		activeID:    NoTask,
		reqCh:       make(chan request),
		interruptCh: make(chan Interrupt, 64),
		crashed:     make(chan struct{}),
	}
	for i := range k.eventSlot {
		k.eventSlot[i] = NoTask
	}
	return k
}

// Boot allocates a task directly, bypassing the request channel since the
// dispatcher loop has not started yet; it may be called for each task that
// must exist before Run. Returns NoTask if priority is invalid or the task
// pool is full.
func (k *Kernel) Boot(priority int, entry func(*Handle)) TaskID {
	if priority < 0 || priority >= k.cfg.NumPriorities {
		return NoTask
	}
	return k.createTask(NoTask, priority, entry)
}

func (k *Kernel) createTask(parent TaskID, priority int, entry func(*Handle)) TaskID {
	if int(k.nextID) >= k.cfg.MaxTasks {
		return NoTask
	}
	id := k.nextID
	k.nextID++
	t := &tcb{
		id:        id,
		parentID:  parent,
		priority:  priority,
		state:     Ready,
		waitingOn: NoTask,
		resume:    make(chan int32, 1),
		entry:     entry,
	}
	k.tasks[id] = t
	go k.runTask(id)
	k.sched.add(priority, id)
	return id
}

// runTask is the goroutine body for every task. It waits to be scheduled
// for the first time, then runs the task's entry point to completion. If
// entry returns without calling Exit, Exit is called on its behalf.
func (k *Kernel) runTask(id TaskID) {
	t := k.tasks[id]
	<-t.resume
	h := &Handle{k: k, id: id}
	t.entry(h)
	h.Exit()
}

// Run drives the dispatcher loop until ctx is cancelled or the kernel
// crashes. It is the only goroutine that ever mutates a tcb's fields.
func (k *Kernel) Run(ctx context.Context) {
	for {
		if k.isCrashed() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		k.drainInterrupts()

		next := k.sched.next()
		if next == NoTask {
			select {
			case ev := <-k.interruptCh:
				k.handleInterrupt(ev)
			case <-ctx.Done():
				return
			}
			continue
		}

		k.activeID = next
		t := k.tasks[next]
		if t.interrupted {
			t.interrupted = false
		}
		t.state = Active
		t.resume <- t.pendingReturn

		select {
		case req := <-k.reqCh:
			k.handleRequest(req)
		case <-ctx.Done():
			return
		}
	}
}

func (k *Kernel) drainInterrupts() {
	for {
		select {
		case ev := <-k.interruptCh:
			k.handleInterrupt(ev)
		default:
			return
		}
	}
}

func (k *Kernel) handleInterrupt(ev Interrupt) {
	if k.activeID != NoTask {
		if t := k.tasks[k.activeID]; t != nil && t.state == Active {
			t.interrupted = true
		}
	}
	if ev.Event == EventTimerTick {
		k.ticks++
	}
	waiter := k.eventSlot[ev.Event]
	if waiter == NoTask {
		return
	}
	k.eventSlot[ev.Event] = NoTask
	t := k.tasks[waiter]
	if t == nil || t.state != EventBlock {
		return
	}
	t.state = Ready
	t.pendingReturn = int32(k.ticks)
	k.sched.add(t.priority, t.id)
}

// Ticks returns the number of timer interrupts the kernel has observed.
// Safe to call only from within the dispatcher goroutine (e.g. from a
// request handler). Handle exposes no accessor for it; the clock server
// keeps its own tick count.
func (k *Kernel) Ticks() uint64 { return k.ticks }
