package tcp

import (
	"errors"
	"math/bits"
)

// Flags is a TCP flags bit-masked implementation i.e: SYN, FIN, ACK.
type Flags uint16

const (
	FlagFIN Flags = 1 << iota // FlagFIN - No more data from sender.
	FlagSYN                   // FlagSYN - Synchronize sequence numbers.
	FlagRST                   // FlagRST - Reset the connection.
	FlagPSH                   // FlagPSH - Push function.
	FlagACK                   // FlagACK - Acknowledgment field significant.
	FlagURG                   // FlagURG - Urgent pointer field significant.
	FlagECE                   // FlagECE - ECN-Echo.
	FlagCWR                   // FlagCWR - Congestion Window Reduced.
)

const flagMask = 0x00ff

// HasAll checks if mask bits are all set in the receiver flags.
func (flags Flags) HasAll(mask Flags) bool { return flags&mask == mask }

// HasAny checks if one or more mask bits are set in receiver flags.
func (flags Flags) HasAny(mask Flags) bool { return flags&mask != 0 }

// Mask returns the flags with non-flag bits unset.
func (flags Flags) Mask() Flags { return flags & flagMask }

const (
	synack = FlagSYN | FlagACK
	finack = FlagFIN | FlagACK
	ackrst = FlagACK | FlagRST
)

func (flags Flags) String() string {
	switch flags.Mask() {
	case 0:
		return "[]"
	case synack:
		return "[SYN,ACK]"
	case finack:
		return "[FIN,ACK]"
	case ackrst:
		return "[ACK,RST]"
	case FlagACK:
		return "[ACK]"
	case FlagSYN:
		return "[SYN]"
	case FlagFIN:
		return "[FIN]"
	case FlagRST:
		return "[RST]"
	}
	buf := make([]byte, 0, 2+4*bits.OnesCount16(uint16(flags)))
	buf = append(buf, '[')
	buf = flags.AppendFormat(buf)
	buf = append(buf, ']')
	return string(buf)
}

// AppendFormat appends a human readable flag string to b returning the extended buffer.
func (flags Flags) AppendFormat(b []byte) []byte {
	flags = flags.Mask()
	if flags == 0 {
		return b
	}
	const strflags = "FIN SYN RST PSH ACK URG ECE CWR "
	const flaglen = 4
	var addcommas bool
	for flags != 0 {
		i := bits.TrailingZeros16(uint16(flags))
		if addcommas {
			b = append(b, ',')
		}
		addcommas = true
		end := i*flaglen + flaglen
		if end > len(strflags) {
			end = len(strflags)
		}
		s := strflags[i*flaglen : end]
		for len(s) > 0 && s[len(s)-1] == ' ' {
			s = s[:len(s)-1]
		}
		b = append(b, s...)
		flags &= ^(1 << i)
	}
	return b
}

// State enumerates the states this engine's connections progress through.
// Only the subset reachable from a passive (server-side) open is modeled;
// the engine never dials out, so SYN-SENT never occurs, and CLOSE-WAIT is
// skipped in favor of a direct ESTABLISHED->LAST_ACK transition on receipt
// of a peer FIN.
type State uint8

const (
	StateListen      State = iota // LISTEN
	StateSynRcvd                  // SYN-RECEIVED
	StateEstablished              // ESTABLISHED
	StateFinWait1                 // FIN-WAIT-1
	StateFinWait2                 // FIN-WAIT-2
	StateLastAck                  // LAST-ACK
)

func (s State) String() string {
	switch s {
	case StateListen:
		return "LISTEN"
	case StateSynRcvd:
		return "SYN-RECEIVED"
	case StateEstablished:
		return "ESTABLISHED"
	case StateFinWait1:
		return "FIN-WAIT-1"
	case StateFinWait2:
		return "FIN-WAIT-2"
	case StateLastAck:
		return "LAST-ACK"
	}
	return "UNKNOWN"
}

// Event identifies the kind of notification delivered to a connection's
// registered Handler.
type Event uint8

const (
	EventConnected Event = iota
	EventDataRecv
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDataRecv:
		return "DATA_RECV"
	case EventClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

var (
	errShortSegment  = errors.New("tcp: short segment")
	errNoHandler     = errors.New("tcp: no handler registered for port")
	errBadChecksum   = errors.New("tcp: bad checksum")
	errUnexpectedState = errors.New("tcp: unexpected state")
)
