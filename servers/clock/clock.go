// Package clock implements the clock server: TIME, DELAY, and DELAY_UNTIL
// over a fixed-capacity sleeper table, advanced by ticks a dedicated
// notifier task forwards from the timer interrupt. Grounded on the
// teacher's sparkos/services/time.Service (same fixed [N]sleeper array,
// same drain-then-wake-then-serve loop shape), adapted from the teacher's
// Step/channel model to this kernel's Receive/Reply rendezvous since there
// is no single call that can wait on "a tick OR a request" at once --
// spec.md §4.4 itself assigns that fan-in to a dedicated notifier task, one
// per hardware event, by convention.
package clock

import (
	"trainctl/kernel"
	"trainctl/proto"
)

// maxSleepers bounds how many DELAY/DELAY_UNTIL callers can be parked at
// once, mirroring the teacher's maxSleepers constant.
const maxSleepers = 32

// ErrInvalidDelay is the clock server's INVALID_DELAY reply (spec.md §7)
// for a negative DELAY/DELAY_UNTIL argument.
const ErrInvalidDelay int32 = -1

type sleeper struct {
	inUse bool
	due   int32
	who   kernel.TaskID
}

// Server is the clock. now advances only when the notifier forwards a tick;
// Run owns every field.
type Server struct {
	now      int32
	sleepers [maxSleepers]sleeper
}

// New creates an idle clock server at tick 0.
func New() *Server { return &Server{} }

// Run is the server's request loop. Never returns. The notifier task
// (spawned alongside it by the boot glue) sends KindClockTick messages that
// this loop treats identically to any other request, so ticking and
// serving requests both happen on this server's single task without
// extra synchronization.
func (s *Server) Run(h *kernel.Handle) {
	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		req, ok := proto.DecodeClockRequest(buf[:n])
		if !ok {
			h.Reply(from, proto.EncodeInt32Reply(ErrInvalidDelay))
			continue
		}

		switch req.Kind {
		case proto.KindClockTick:
			s.now++
			s.wakeReady(h)
			h.Reply(from, nil)

		case proto.KindTime:
			h.Reply(from, proto.EncodeInt32Reply(s.now))

		case proto.KindDelay:
			s.handleDelay(h, from, req.Ticks, s.now+req.Ticks)

		case proto.KindDelayUntil:
			s.handleDelay(h, from, req.Ticks, req.Ticks)

		default:
			h.Reply(from, proto.EncodeInt32Reply(ErrInvalidDelay))
		}
	}
}

func (s *Server) handleDelay(h *kernel.Handle, from kernel.TaskID, arg, due int32) {
	if arg < 0 {
		h.Reply(from, proto.EncodeInt32Reply(ErrInvalidDelay))
		return
	}
	if due <= s.now {
		h.Reply(from, proto.EncodeInt32Reply(s.now))
		return
	}
	for i := range s.sleepers {
		if !s.sleepers[i].inUse {
			s.sleepers[i] = sleeper{inUse: true, due: due, who: from}
			return
		}
	}
	// No free sleeper slot: reply immediately rather than silently
	// dropping the request, since this server never blocks its own loop.
	h.Reply(from, proto.EncodeInt32Reply(s.now))
}

func (s *Server) wakeReady(h *kernel.Handle) {
	for i := range s.sleepers {
		sl := &s.sleepers[i]
		if !sl.inUse || sl.due > s.now {
			continue
		}
		h.Reply(sl.who, proto.EncodeInt32Reply(s.now))
		*sl = sleeper{}
	}
}

// Notifier awaits the timer-tick event forever and forwards each one to the
// clock server as a KindClockTick request. One instance per clock server,
// by the single-AwaitEvent-slot-per-event convention spec.md §4.4 requires.
func Notifier(clockServer kernel.TaskID) func(*kernel.Handle) {
	return func(h *kernel.Handle) {
		for {
			h.AwaitEvent(kernel.EventTimerTick)
			h.Send(clockServer, proto.ClockRequest{Kind: proto.KindClockTick}.Encode(), nil)
		}
	}
}

// Time is the client helper for the TIME request.
func Time(h *kernel.Handle, clockServer kernel.TaskID) int32 {
	reply := make([]byte, 4)
	h.Send(clockServer, proto.ClockRequest{Kind: proto.KindTime}.Encode(), reply)
	v, _ := proto.DecodeInt32Reply(reply)
	return v
}

// Delay is the client helper for the DELAY request: block the caller until
// ticks ticks from now.
func Delay(h *kernel.Handle, clockServer kernel.TaskID, ticks int32) int32 {
	reply := make([]byte, 4)
	h.Send(clockServer, proto.ClockRequest{Kind: proto.KindDelay, Ticks: ticks}.Encode(), reply)
	v, _ := proto.DecodeInt32Reply(reply)
	return v
}

// DelayUntil is the client helper for the DELAY_UNTIL request: block the
// caller until absolute tick tick.
func DelayUntil(h *kernel.Handle, clockServer kernel.TaskID, tick int32) int32 {
	reply := make([]byte, 4)
	h.Send(clockServer, proto.ClockRequest{Kind: proto.KindDelayUntil, Ticks: tick}.Encode(), reply)
	v, _ := proto.DecodeInt32Reply(reply)
	return v
}
