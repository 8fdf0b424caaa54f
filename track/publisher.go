package track

import (
	"encoding/binary"

	"trainctl/kernel"
)

// publisherTask fans a switch-state-changed notification out to every
// subscriber. It is a one-worker instance of the same receive/reply-empty/
// forward idiom courier.Pool uses, adapted rather than reused because a
// publish fans out to N recipients instead of forwarding to one downstream
// server (see DESIGN.md).
func publisherTask(h *kernel.Handle) {
	buf := make([]byte, kernel.MaxMessageBytes)
	for {
		from, n := h.Receive(buf)
		h.Reply(from, nil)

		subs, payload := decodeNotify(buf[:n])
		for _, sub := range subs {
			h.Send(sub, payload, nil)
		}
	}
}

func encodeNotify(subs []kernel.TaskID, payload []byte) []byte {
	buf := make([]byte, 2+4*len(subs)+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(len(subs)))
	off := 2
	for _, s := range subs {
		binary.LittleEndian.PutUint32(buf[off:], uint32(s))
		off += 4
	}
	copy(buf[off:], payload)
	return buf
}

func decodeNotify(b []byte) ([]kernel.TaskID, []byte) {
	if len(b) < 2 {
		return nil, nil
	}
	count := int(binary.LittleEndian.Uint16(b))
	off := 2
	subs := make([]kernel.TaskID, 0, count)
	for i := 0; i < count && off+4 <= len(b); i++ {
		subs = append(subs, kernel.TaskID(binary.LittleEndian.Uint32(b[off:])))
		off += 4
	}
	return subs, b[off:]
}
