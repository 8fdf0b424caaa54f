//go:build !tinygo

package hal

import "time"

// tickDuration is spec.md §6's clock-server tick rate.
const tickDuration = 10 * time.Millisecond

// hostTime ticks a background goroutine on tickDuration, same free-running
// producer shape as the teacher's hal.hostTime but driven by its own
// ticker rather than being stepped once per ebiten frame, since this
// repository's dispatcher loop runs independently of any window.
type hostTime struct {
	ch chan uint64
}

func newHostTime() *hostTime {
	t := &hostTime{ch: make(chan uint64, 1024)}
	go t.run()
	return t
}

func (t *hostTime) run() {
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()
	var seq uint64
	for range ticker.C {
		seq++
		select {
		case t.ch <- seq:
		default:
		}
	}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }
