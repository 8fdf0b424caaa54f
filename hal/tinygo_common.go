//go:build tinygo

package hal

import (
	"time"

	"tinygo.org/x/drivers"
)

// tickDuration is spec.md §6's clock-server tick rate.
const tickDuration = 10 * time.Millisecond

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(tickDuration)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

// tinyGoSerial adapts a drivers.UART (machine.UART satisfies this
// structurally) to hal.Serial. Grounded on the shape
// tinygo.org/x/drivers' own peripheral packages (gps, sx126x, ...) expect
// from their UART transport argument, reused here instead of talking to
// machine.UART directly so the train-controller channel is testable
// against any drivers.UART, not tied to one board's concrete type.
type tinyGoSerial struct {
	uart drivers.UART
}

func (s *tinyGoSerial) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if s.uart.Buffered() == 0 {
			if n > 0 {
				return n, nil
			}
			continue
		}
		b, err := s.uart.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func (s *tinyGoSerial) Write(p []byte) (int, error) {
	return s.uart.Write(p)
}
