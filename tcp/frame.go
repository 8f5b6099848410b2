package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hitsznet/netlab"
)

const sizeHeader = 20

// NewFrame returns a new Frame with data set to buf. An error is returned
// if the buffer size is smaller than 20, the fixed TCP header size (this
// engine never emits or expects options, so data_offset is always 5).
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errors.New("tcp: short buffer")
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a TCP segment and provides methods
// for manipulating, validating and retrieving fields and payload data.
// See [RFC793].
//
// [RFC793]: https://datatracker.ietf.org/doc/html/rfc793
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (tfrm Frame) RawData() []byte { return tfrm.buf }

// SourcePort identifies the sending port of the TCP segment. Must be non-zero.
func (tfrm Frame) SourcePort() uint16 {
	return binary.BigEndian.Uint16(tfrm.buf[0:2])
}

// SetSourcePort sets TCP source port. See [Frame.SourcePort].
func (tfrm Frame) SetSourcePort(src uint16) {
	binary.BigEndian.PutUint16(tfrm.buf[0:2], src)
}

// DestinationPort identifies the receiving port for the TCP segment. Must be non-zero.
func (tfrm Frame) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(tfrm.buf[2:4])
}

// SetDestinationPort sets TCP destination port. See [Frame.DestinationPort].
func (tfrm Frame) SetDestinationPort(dst uint16) {
	binary.BigEndian.PutUint16(tfrm.buf[2:4], dst)
}

// Seq returns the sequence number of the first data octet in this segment
// (except when SYN is present, in which case it is the initial sequence
// number and the first data octet is Seq+1).
func (tfrm Frame) Seq() uint32 {
	return binary.BigEndian.Uint32(tfrm.buf[4:8])
}

// SetSeq sets the Seq field. See [Frame.Seq].
func (tfrm Frame) SetSeq(v uint32) {
	binary.BigEndian.PutUint32(tfrm.buf[4:8], v)
}

// Ack is the next sequence number the sender of this segment expects to
// receive, valid when ACK is set.
func (tfrm Frame) Ack() uint32 {
	return binary.BigEndian.Uint32(tfrm.buf[8:12])
}

// SetAck sets the Ack field. See [Frame.Ack].
func (tfrm Frame) SetAck(v uint32) {
	binary.BigEndian.PutUint32(tfrm.buf[8:12], v)
}

// OffsetAndFlags returns the data offset (in 32-bit words) and flags fields.
func (tfrm Frame) OffsetAndFlags() (offset uint8, flags Flags) {
	v := binary.BigEndian.Uint16(tfrm.buf[12:14])
	offset = uint8(v >> 12)
	flags = Flags(v).Mask()
	return offset, flags
}

// SetOffsetAndFlags sets the data offset and flags fields. See [Frame.OffsetAndFlags].
func (tfrm Frame) SetOffsetAndFlags(offset uint8, flags Flags) {
	v := uint16(offset)<<12 | uint16(flags.Mask())
	binary.BigEndian.PutUint16(tfrm.buf[12:14], v)
}

// HeaderLength uses the offset field to calculate the TCP header length in
// bytes. This engine always emits data_offset=5 (no options), so for sent
// frames this is always 20, but received frames are read as-is.
func (tfrm Frame) HeaderLength() int {
	offset, _ := tfrm.OffsetAndFlags()
	return 4 * int(offset)
}

func (tfrm Frame) WindowSize() uint16 { return binary.BigEndian.Uint16(tfrm.buf[14:16]) }
func (tfrm Frame) SetWindowSize(v uint16) {
	binary.BigEndian.PutUint16(tfrm.buf[14:16], v)
}

// CRC returns the checksum field in the TCP header.
func (tfrm Frame) CRC() uint16 {
	return binary.BigEndian.Uint16(tfrm.buf[16:18])
}

// SetCRC sets the checksum field of the TCP header. See [Frame.CRC].
func (tfrm Frame) SetCRC(checksum uint16) {
	binary.BigEndian.PutUint16(tfrm.buf[16:18], checksum)
}

func (tfrm Frame) UrgentPtr() uint16      { return binary.BigEndian.Uint16(tfrm.buf[18:20]) }
func (tfrm Frame) SetUrgentPtr(up uint16) { binary.BigEndian.PutUint16(tfrm.buf[18:20], up) }

// Payload returns the payload content section of the TCP segment, not
// including the header or options. Be sure to call [Frame.ValidateSize]
// beforehand to avoid panics.
func (tfrm Frame) Payload() []byte {
	return tfrm.buf[tfrm.HeaderLength():]
}

// ClearHeader zeros out the fixed header contents.
func (tfrm Frame) ClearHeader() {
	for i := range tfrm.buf[:sizeHeader] {
		tfrm.buf[i] = 0
	}
}

func (tfrm Frame) String() string {
	_, flags := tfrm.OffsetAndFlags()
	return fmt.Sprintf("TCP :%d -> :%d SEQ=%d ACK=%d %s", tfrm.SourcePort(), tfrm.DestinationPort(), tfrm.Seq(), tfrm.Ack(), flags)
}

//
// Validation API.
//

// ValidateSize checks the frame's data offset against the actual buffer
// length. It adds an error to v on finding an inconsistency.
func (tfrm Frame) ValidateSize(v *lneto.Validator) {
	off := tfrm.HeaderLength()
	if off < sizeHeader {
		v.AddError(errShortSegment)
	}
	if off > len(tfrm.RawData()) {
		v.AddError(errShortSegment)
	}
}

// ValidateExceptCRC checks for invalid frame field values but does not
// check the checksum.
func (tfrm Frame) ValidateExceptCRC(v *lneto.Validator) {
	tfrm.ValidateSize(v)
	if tfrm.DestinationPort() == 0 {
		v.AddError(lneto.ErrZeroDestination)
	}
	if tfrm.SourcePort() == 0 {
		v.AddError(lneto.ErrZeroSource)
	}
}
