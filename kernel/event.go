package kernel

// EventID names an interrupt source a task can AwaitEvent on. Only one task
// may await a given event at a time; a second concurrent AwaitEvent on the
// same id is a configuration error in the calling code, not a condition the
// kernel diagnoses (convention-enforced, matching the original kernel).
type EventID int

const (
	EventTimerTick EventID = iota
	EventUART0Rx
	EventUART0Tx
	EventUART1Rx
	EventUART1Tx
	EventUART1Cts
	EventUART1RxTimeout
	numEvents
)

func (e EventID) String() string {
	switch e {
	case EventTimerTick:
		return "TIMER_TICK"
	case EventUART0Rx:
		return "UART0_RX"
	case EventUART0Tx:
		return "UART0_TX"
	case EventUART1Rx:
		return "UART1_RX"
	case EventUART1Tx:
		return "UART1_TX"
	case EventUART1Cts:
		return "UART1_CTS"
	case EventUART1RxTimeout:
		return "UART1_RX_TIMEOUT"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Interrupt is one asynchronous hardware event injected into the kernel
// from a driver goroutine (the timer ticker, a UART reader). It carries
// only the event id; AwaitEvent returns no data, and the awakened task
// re-reads whatever peripheral state it needs via hal.
type Interrupt struct {
	Event EventID
}

// Interrupt injects one asynchronous hardware event into the kernel. Safe
// to call concurrently from any driver goroutine; the dispatcher drains
// pending interrupts between task activations.
func (k *Kernel) Interrupt(ev Interrupt) {
	k.interruptCh <- ev
}
