package tcp

import (
	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/ipv4"
)

// CalculateIPv4Checksum computes the TCP checksum of tfrm over the IPv4
// pseudo-header formed from ifrm.
func (tfrm Frame) CalculateIPv4Checksum(ifrm ipv4.Frame) uint16 {
	var crc lneto.CRC791
	ifrm.CRCWriteTCPPseudo(&crc)
	crc.Write(tfrm.RawData())
	return lneto.NeverZeroChecksum(crc.Sum16())
}

// ValidateChecksum reports whether tfrm's stored checksum matches the
// checksum computed over its current contents against ifrm's
// pseudo-header. The stored checksum is saved, zeroed for the recompute,
// and restored before returning.
func (tfrm Frame) ValidateChecksum(ifrm ipv4.Frame) bool {
	saved := tfrm.CRC()
	tfrm.SetCRC(0)
	got := tfrm.CalculateIPv4Checksum(ifrm)
	tfrm.SetCRC(saved)
	return got == saved
}

// SetIPv4Checksum computes and stores the TCP checksum for tfrm against
// ifrm's pseudo-header.
func (tfrm Frame) SetIPv4Checksum(ifrm ipv4.Frame) {
	tfrm.SetCRC(0)
	tfrm.SetCRC(tfrm.CalculateIPv4Checksum(ifrm))
}
