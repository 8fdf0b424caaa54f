// Package proto defines the wire payloads exchanged with the Name, Clock,
// UART, and track-authority servers: a Kind tag byte followed by a
// fixed-layout binary.LittleEndian body, exactly the shape the teacher
// uses for its own service payloads (sparkos/proto).
package proto

// Kind tags the opcode of a request or notification. Grounded on the
// teacher's own Kind enum (sparkos/proto/proto.go), extended with the
// request headers original_source/kernel/server/uart_server.h and
// original_source/src/server/track_server.cc define for their own
// message unions.
type Kind uint8

const (
	KindRegisterAs Kind = iota
	KindWhoIs

	KindTime
	KindDelay
	KindDelayUntil
	KindClockTick

	KindUARTGetc
	KindUARTPutc
	KindUARTPuts
	KindUARTNotifyReceive
	KindUARTNotifyTransmission
	KindUARTNotifyCTS

	KindTrainSetSpeed
	KindTrainReverse
	KindTrainSetSwitch

	KindTrackInit
	KindTrackGetSwitchState
	KindTrackRNG
	KindTrackSwitch
	KindTrackGetPath
	KindTrackUnreserve
	KindTrackTryReserve
	KindTrackCourierComplete
	KindTrackSwitchSubscribe
)

func (k Kind) String() string {
	switch k {
	case KindRegisterAs:
		return "REGISTER_AS"
	case KindWhoIs:
		return "WHO_IS"
	case KindTime:
		return "TIME"
	case KindDelay:
		return "DELAY"
	case KindDelayUntil:
		return "DELAY_UNTIL"
	case KindClockTick:
		return "CLOCK_TICK"
	case KindUARTGetc:
		return "UART_GETC"
	case KindUARTPutc:
		return "UART_PUTC"
	case KindUARTPuts:
		return "UART_PUTS"
	case KindUARTNotifyReceive:
		return "UART_NOTIFY_RECEIVE"
	case KindUARTNotifyTransmission:
		return "UART_NOTIFY_TRANSMISSION"
	case KindUARTNotifyCTS:
		return "UART_NOTIFY_CTS"
	case KindTrainSetSpeed:
		return "TRAIN_SET_SPEED"
	case KindTrainReverse:
		return "TRAIN_REVERSE"
	case KindTrainSetSwitch:
		return "TRAIN_SET_SWITCH"
	case KindTrackInit:
		return "TRACK_INIT"
	case KindTrackGetSwitchState:
		return "TRACK_GET_SWITCH_STATE"
	case KindTrackRNG:
		return "TRACK_RNG"
	case KindTrackSwitch:
		return "TRACK_SWITCH"
	case KindTrackGetPath:
		return "TRACK_GET_PATH"
	case KindTrackUnreserve:
		return "TRACK_UNRESERVE"
	case KindTrackTryReserve:
		return "TRACK_TRY_RESERVE"
	case KindTrackCourierComplete:
		return "TRACK_COURIER_COMPLETE"
	case KindTrackSwitchSubscribe:
		return "TRACK_SWITCH_SUBSCRIBE"
	default:
		return "UNKNOWN_KIND"
	}
}
