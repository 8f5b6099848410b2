package icmp

import "github.com/hitsznet/netlab"

// BuildEchoReply fills dst with an echo reply built from a received echo
// message recv (header and data, as received). dst must have the same
// length as recv; the two may alias the same backing array. The identifier
// and sequence number are carried over unchanged; only the type byte and
// the checksum change.
func BuildEchoReply(dst, recv []byte) error {
	if len(dst) != len(recv) {
		return errShortFrame
	}
	if &dst[0] != &recv[0] {
		copy(dst, recv)
	}
	frm, err := NewFrame(dst)
	if err != nil {
		return err
	}
	frm.SetType(TypeEchoReply)
	frm.SetCode(0)
	frm.SetCRC(0)
	var crc lneto.CRC791
	frm.CRCWrite(&crc)
	frm.SetCRC(crc.Sum16())
	return nil
}

// BuildUnreachable fills dst with a destination-unreachable message of the
// given code. offending is the IP header of the packet that could not be
// delivered plus its first 8 bytes of payload, copied verbatim into the
// message body. dst must be exactly 8+len(offending) bytes: the 8 byte
// ICMP header (4 of which are an unused field, left zero) followed by the
// offending bytes.
func BuildUnreachable(dst []byte, offending []byte, code CodeDestinationUnreachable) error {
	if len(dst) != sizeHeader+len(offending) {
		return errShortFrame
	}
	frm, err := NewFrame(dst)
	if err != nil {
		return err
	}
	frm.SetType(TypeDestinationUnreachable)
	unreach := FrameDestinationUnreachable{frm}
	unreach.SetCode(code)
	dst[4], dst[5], dst[6], dst[7] = 0, 0, 0, 0 // unused field
	copy(dst[sizeHeader:], offending)
	frm.SetCRC(0)
	var crc lneto.CRC791
	frm.CRCWrite(&crc)
	frm.SetCRC(crc.Sum16())
	return nil
}
