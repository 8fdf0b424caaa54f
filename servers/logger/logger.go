// Package logger is a trivial single-writer server fronting hal.Logger, so
// every other server logs by sending a message instead of touching hal
// directly -- the same single-writer-per-resource discipline spec.md §5
// requires of every other piece of shared state. Grounded on the
// teacher's sparkos/services/logger, itself a thin Step-shaped wrapper
// around hal.Logger.
package logger

import (
	"trainctl/hal"
	"trainctl/kernel"
)

// Server serializes every log write through its own request loop.
type Server struct {
	hal hal.Logger
}

// New creates a logger server backed by hal.
func New(hal hal.Logger) *Server {
	return &Server{hal: hal}
}

// Run is the server's request loop. Every request is a raw line of text;
// there is no reply payload beyond unblocking the caller. Never returns.
func (s *Server) Run(h *kernel.Handle) {
	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		s.hal.WriteLineBytes(buf[:n])
		h.Reply(from, nil)
	}
}

// Log is the client helper: send line to the logger server.
func Log(h *kernel.Handle, loggerServer kernel.TaskID, line string) {
	h.Send(loggerServer, []byte(line), nil)
}
