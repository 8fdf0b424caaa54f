//go:build tinygo

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger  *uartLogger
	t       *tinyGoTime
	console *tinyGoSerial
	train   *tinyGoSerial
}

// New returns the on-device HAL: UART0 is the operator console (GP0/GP1),
// UART1 is the train-controller bus (GP4/GP5) with CTS hardware flow
// control per spec.md §6, both wrapped as drivers.UART so the same
// tinygo.org/x/drivers-shaped abstraction the teacher's device drivers
// consume backs the train bus here.
func New() HAL {
	console := machine.UART0
	console.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	train := machine.UART1
	train.Configure(machine.UARTConfig{
		BaudRate: 2400,
		TX:       machine.GP4,
		RX:       machine.GP5,
		CTS:      machine.GP6,
	})

	return &tinyGoHAL{
		logger:  &uartLogger{uart: console},
		t:       newTinyGoTime(),
		console: &tinyGoSerial{uart: console},
		train:   &tinyGoSerial{uart: train},
	}
}

func (h *tinyGoHAL) Logger() Logger { return h.logger }
func (h *tinyGoHAL) Time() Time     { return h.t }

func (h *tinyGoHAL) Serial(ch Channel) Serial {
	if ch == ChannelTrain {
		return h.train
	}
	return h.console
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	l.uart.Write([]byte(s))
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.uart.Write(b)
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}
