package proto

// UARTRequest is sent to a UART transmit/receive server task. Channel
// distinguishes UART0 (operator console) from UART1 (train-controller
// wire), matching original_source/kernel/server/uart_server.h's
// per-channel transmitter/receiver task split.
type UARTRequest struct {
	Kind    Kind
	Channel byte
	// Byte is the single character for GETC's reply / PUTC's argument.
	Byte byte
	// Data is the payload for PUTS; empty for every other Kind.
	Data []byte
}

func (r UARTRequest) Encode() []byte {
	buf := make([]byte, 3+len(r.Data))
	buf[0] = byte(r.Kind)
	buf[1] = r.Channel
	buf[2] = r.Byte
	copy(buf[3:], r.Data)
	return buf
}

func DecodeUARTRequest(b []byte) (UARTRequest, bool) {
	if len(b) < 3 {
		return UARTRequest{}, false
	}
	req := UARTRequest{
		Kind:    Kind(b[0]),
		Channel: b[1],
		Byte:    b[2],
	}
	if len(b) > 3 {
		req.Data = append([]byte(nil), b[3:]...)
	}
	return req, true
}
