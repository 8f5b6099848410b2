// Package icmp implements the ICMPv4 wire format and the echo/unreachable
// message construction this stack emits. See [RFC 792].
//
// [RFC 792]: https://tools.ietf.org/html/rfc792
package icmp

import (
	"encoding/binary"
	"errors"

	"github.com/hitsznet/netlab"
)

type Type uint8

const (
	TypeEchoReply Type = 0 // echo reply
	TypeEcho      Type = 8 // echo

	TypeDestinationUnreachable Type = 3 // destination unreachable
	TypeSourceQuench           Type = 4 // source quench
	TypeRedirect               Type = 5 // redirect

	TypeTimeExceeded     Type = 11 // time exceeded
	TypeParameterProblem Type = 12 // parameter problem

	TypeTimestamp      Type = 13 // timestamp
	TypeTimestampReply Type = 14 // timestamp reply

	TypeInfoRequest      Type = 15 // information request
	TypeInfoRequestReply Type = 16 // information request reply
)

type CodeTimeExceeded uint8

const (
	CodeExceededInTransit  CodeTimeExceeded = iota // TTL exceeded in transit
	CodeFragmentReassembly                         // fragment reassembly time exceeded
)

// CodeDestinationUnreachable enumerates the codes this stack emits and the
// wider RFC 792 set it may encounter on ingress.
type CodeDestinationUnreachable uint8

const (
	CodeNetUnreachable      CodeDestinationUnreachable = iota // net unreachable
	CodeHostUnreachable                                       // host unreachable
	CodeProtocolUnreachable                                    // protocol unreachable
	CodePortUnreachable                                        // port unreachable
	CodeFragNeededAndDFSet                                     // fragmentation needed and DF set
	CodeSourceRouteFailed                                      // source route failed
)

type CodeRedirect uint8

const (
	CodeRedirectForNetwork       CodeRedirect = iota // redirect for network
	CodeRedirectForHost                              // redirect for host
	CodeRedirectForToSAndNetwork                      // redirect for ToS+network
	CodeRedirectToSAndHost                            // redirect for ToS+host
)

var errShortFrame = errors.New("icmp: short frame")

const sizeHeader = 8

// NewFrame returns a new Frame with data set to buf. An error is returned
// if buf is shorter than the 8 byte ICMP header.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{}, errShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an ICMPv4 message and provides
// methods for manipulating, validating and retrieving fields and payload
// data.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (frm Frame) RawData() []byte { return frm.buf }

func (frm Frame) Type() Type { return Type(frm.buf[0]) }

func (frm Frame) SetType(t Type) { frm.buf[0] = uint8(t) }

func (frm Frame) Code() uint8 { return frm.buf[1] }

func (frm Frame) SetCode(code uint8) { frm.buf[1] = code }

// CRC returns the checksum field of the frame.
func (frm Frame) CRC() uint16 {
	return binary.BigEndian.Uint16(frm.buf[2:4])
}

// SetCRC sets the checksum field of the frame.
func (frm Frame) SetCRC(crc uint16) {
	binary.BigEndian.PutUint16(frm.buf[2:4], crc)
}

// CRCWrite calculates the checksum of the ICMP packet. Treats the checksum
// field as zero as per RFC 792; callers must zero [Frame.SetCRC] first.
func (frm Frame) CRCWrite(crc *lneto.CRC791) {
	crc.AddUint16(binary.BigEndian.Uint16(frm.buf[0:2]))
	crc.Write(frm.buf[4:])
}

func (frm Frame) payload() []byte {
	return frm.buf[4:]
}

// ValidateSize checks that buf is large enough to hold the fixed header.
func (frm Frame) ValidateSize(v *lneto.Validator) {
	if len(frm.buf) < sizeHeader {
		v.AddError(errShortFrame)
	}
}

type FrameDestinationUnreachable struct {
	Frame
}

func (frm FrameDestinationUnreachable) Code() CodeDestinationUnreachable {
	return CodeDestinationUnreachable(frm.Frame.Code())
}

func (frm FrameDestinationUnreachable) SetCode(code CodeDestinationUnreachable) {
	frm.Frame.SetCode(uint8(code))
}

// Unreachable returns the offending-packet payload carried after the
// unused 4-byte field of a destination-unreachable message.
func (frm FrameDestinationUnreachable) Unreachable() []byte {
	return frm.buf[sizeHeader:]
}

type FrameEcho struct {
	Frame
}

func (frm FrameEcho) Identifier() uint16 {
	return binary.BigEndian.Uint16(frm.buf[4:6])
}

func (frm FrameEcho) SetIdentifier(id uint16) {
	binary.BigEndian.PutUint16(frm.buf[4:6], id)
}

func (frm FrameEcho) SequenceNumber() uint16 {
	return binary.BigEndian.Uint16(frm.buf[6:8])
}

func (frm FrameEcho) SetSequenceNumber(seq uint16) {
	binary.BigEndian.PutUint16(frm.buf[6:8], seq)
}

func (frm FrameEcho) Data() []byte {
	return frm.buf[8:]
}

func (frm FrameEcho) RawData() []byte {
	return frm.buf
}
