//go:build !tinygo

package hal

import "os"

type hostHAL struct {
	logger  *hostLogger
	t       *hostTime
	console *hostSerial
	train   *loopbackSerial
}

// New returns the host HAL: the console channel is the process's own
// stdin/stdout, and the train channel is an in-memory loopback pipe since
// a development machine has no real train bus (see host_serial.go).
func New() HAL {
	train := newLoopbackSerial()
	return &hostHAL{
		logger:  &hostLogger{w: os.Stdout},
		t:       newHostTime(),
		console: &hostSerial{r: os.Stdin, w: os.Stdout},
		train:   train,
	}
}

func (h *hostHAL) Logger() Logger { return h.logger }
func (h *hostHAL) Time() Time     { return h.t }

func (h *hostHAL) Serial(ch Channel) Serial {
	if ch == ChannelTrain {
		return h.train
	}
	return h.console
}

type hostLogger struct {
	w *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.w.WriteString(s)
	l.w.WriteString("\n")
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.w.Write(b)
	l.w.WriteString("\n")
}
