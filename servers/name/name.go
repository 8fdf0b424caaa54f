// Package name implements the name server: a trivial in-memory
// string-to-task-id registry (spec.md §6), grounded on the same
// Step-shaped request loop every other server in this repository uses.
package name

import (
	"trainctl/kernel"
	"trainctl/proto"
)

// NotFound is WHO_IS's reply when no task has registered under that name.
const NotFound int32 = -1

type entry struct {
	inUse bool
	name  string
	id    kernel.TaskID
}

// Server is the name registry. Grounded on
// _examples/original_source's trivial name table (out of scope for this
// spec's own subsystems, but every other server here depends on it to find
// its peers, so it is built anyway per SPEC_FULL.md's ambient-stack note).
type Server struct {
	table []entry
}

// New creates a name server sized for capacity simultaneously registered
// names.
func New(capacity int) *Server {
	return &Server{table: make([]entry, capacity)}
}

// Run is the server's request loop. Never returns.
func (s *Server) Run(h *kernel.Handle) {
	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		req, ok := proto.DecodeNameRequest(buf[:n])
		if !ok {
			h.Reply(from, proto.EncodeInt32Reply(NotFound))
			continue
		}

		switch req.Kind {
		case proto.KindRegisterAs:
			s.register(from, req.NameString())
			h.Reply(from, proto.EncodeInt32Reply(int32(from)))
		case proto.KindWhoIs:
			h.Reply(from, proto.EncodeInt32Reply(s.lookup(req.NameString())))
		default:
			h.Reply(from, proto.EncodeInt32Reply(NotFound))
		}
	}
}

func (s *Server) register(id kernel.TaskID, name string) {
	for i := range s.table {
		if s.table[i].inUse && s.table[i].id == id {
			s.table[i].name = name
			return
		}
	}
	for i := range s.table {
		if !s.table[i].inUse {
			s.table[i] = entry{inUse: true, name: name, id: id}
			return
		}
	}
}

func (s *Server) lookup(name string) int32 {
	for _, e := range s.table {
		if e.inUse && e.name == name {
			return int32(e.id)
		}
	}
	return NotFound
}

// RegisterAs is the client helper a task calls to register its own id under
// name.
func RegisterAs(h *kernel.Handle, nameServer kernel.TaskID, name string) (kernel.TaskID, error) {
	reply := make([]byte, 4)
	req := proto.EncodeNameRequest(proto.KindRegisterAs, name)
	if _, err := h.Send(nameServer, req.Encode(), reply); err != nil {
		return kernel.NoTask, err
	}
	id, _ := proto.DecodeInt32Reply(reply)
	return kernel.TaskID(id), nil
}

// WhoIs is the client helper a task calls to resolve a registered name.
func WhoIs(h *kernel.Handle, nameServer kernel.TaskID, name string) (kernel.TaskID, bool) {
	reply := make([]byte, 4)
	req := proto.EncodeNameRequest(proto.KindWhoIs, name)
	if _, err := h.Send(nameServer, req.Encode(), reply); err != nil {
		return kernel.NoTask, false
	}
	id, _ := proto.DecodeInt32Reply(reply)
	if id == NotFound {
		return kernel.NoTask, false
	}
	return kernel.TaskID(id), true
}
