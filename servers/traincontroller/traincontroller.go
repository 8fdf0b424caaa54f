// Package traincontroller translates structured train commands into
// spec.md §6's raw byte protocol for UART1: 0x00..0x0E + train-id sets
// speed 0..14, 0x0F + train-id reverses, 0x20..0x21 + switch-id sets a
// switch curved/straight. Grounded on original_source's protocol table
// (kept only at the interface level in spec.md, since the physical byte
// framing lives entirely at this boundary) and on the courier/transmitter
// wiring track.Authority already assumes for its downstream target.
package traincontroller

import (
	"trainctl/kernel"
	"trainctl/proto"
	"trainctl/servers/uart"
	"trainctl/track"
)

const (
	byteReverse      = 0x0F
	byteSwitchBase   = 0x20
	maxSpeedCode     = 0x0E
	trainUARTChannel = 1
)

// Server owns nothing but the transmitter it forwards onto; every request
// is stateless.
type Server struct {
	transmitter kernel.TaskID
}

// New creates a train-controller server that writes onto transmitter's
// UART1 channel.
func New(transmitter kernel.TaskID) *Server {
	return &Server{transmitter: transmitter}
}

// Run is the server's request loop. Never returns.
func (s *Server) Run(h *kernel.Handle) {
	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		req, ok := proto.DecodeTrainRequest(buf[:n])
		if !ok {
			h.Reply(from, nil)
			continue
		}

		switch req.Kind {
		case proto.KindTrainSetSpeed:
			speed := req.Value
			if speed > maxSpeedCode {
				speed = maxSpeedCode
			}
			uart.Puts(h, s.transmitter, trainUARTChannel, []byte{speed, req.Unit})

		case proto.KindTrainReverse:
			uart.Puts(h, s.transmitter, trainUARTChannel, []byte{byteReverse, req.Unit})

		case proto.KindTrainSetSwitch:
			dir := track.SwitchDir(req.Value)
			uart.Puts(h, s.transmitter, trainUARTChannel, []byte{byteSwitchBase + byte(dir), byte(req.NodeID)})
		}

		h.Reply(from, nil)
	}
}
