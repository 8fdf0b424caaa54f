// Package hal is the only contact point between the servers in servers/
// and the outside world: logging, the two UART channels, and a tick
// source. Grounded on the teacher's hal package (hal.go's Logger/Time
// interfaces, host.go/tinygo.go's dual-build split), trimmed to the
// surface this repository's servers actually call through -- no
// framebuffer, GPIO, flash, or audio, since the train controller has none
// of the teacher's on-device UI.
package hal

import "errors"

// ErrNotImplemented is returned by a HAL method a given build has no
// backing device for.
var ErrNotImplemented = errors.New("hal: not implemented")

// Logger writes newline-delimited diagnostic lines, backing the logger
// server (spec.md's ambient stack; not itself a spec.md subsystem).
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Serial is one UART channel: raw byte read/write, matching what the UART
// server's transmit/receive tasks need (spec.md §6). Reads block until at
// least one byte is available or the underlying device is closed.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Time provides the tick stream the boot code forwards into the kernel as
// kernel.EventTimerTick interrupts, which wake the clock server's notifier
// task.
type Time interface {
	Ticks() <-chan uint64
}

// Channel identifies one of the two UART lines spec.md §6 defines.
type Channel int

const (
	// ChannelConsole is UART0, the operator terminal.
	ChannelConsole Channel = iota
	// ChannelTrain is UART1, the train controller's binary command bus.
	ChannelTrain
)

// HAL is the platform boundary: one Logger, one Time source, and one
// Serial per UART channel.
type HAL interface {
	Logger() Logger
	Time() Time
	Serial(ch Channel) Serial
}
