package udp

import (
	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/ipv4"
)

// CalculateIPv4Checksum computes the UDP checksum of ufrm over the IPv4
// pseudo-header formed from ifrm. Callers must zero [Frame.SetCRC] before
// calling this when validating, and set the result afterwards when
// building.
func (ufrm Frame) CalculateIPv4Checksum(ifrm ipv4.Frame) uint16 {
	var crc lneto.CRC791
	ifrm.CRCWriteUDPPseudo(&crc)
	crc.AddUint16(ufrm.Length())
	crc.Write(ufrm.RawData()[:sizeHeader])
	crc.Write(ufrm.Payload())
	return lneto.NeverZeroChecksum(crc.Sum16())
}

// ValidateChecksum reports whether ufrm's stored checksum matches the
// checksum computed over its current contents against ifrm's
// pseudo-header. The stored checksum is preserved; it is saved, zeroed for
// the recompute, and restored before returning.
func (ufrm Frame) ValidateChecksum(ifrm ipv4.Frame) bool {
	saved := ufrm.CRC()
	if saved == 0 {
		// UDP checksum is optional; zero means "not computed".
		return true
	}
	ufrm.SetCRC(0)
	got := ufrm.CalculateIPv4Checksum(ifrm)
	ufrm.SetCRC(saved)
	return got == saved
}

// SetIPv4Checksum computes and stores the UDP checksum for ufrm against
// ifrm's pseudo-header.
func (ufrm Frame) SetIPv4Checksum(ifrm ipv4.Frame) {
	ufrm.SetCRC(0)
	ufrm.SetCRC(ufrm.CalculateIPv4Checksum(ifrm))
}
