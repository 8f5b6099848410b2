package lneto_test

import (
	"testing"

	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/ethernet"
	"github.com/hitsznet/netlab/ipv4"
	"github.com/hitsznet/netlab/tcp"
)

// TestIPv4TCPChecksum replays two captured Ethernet/IPv4/TCP frames and
// checks the IPv4 header checksum and TCP pseudo-header checksum against
// the values actually stamped in the capture.
func TestIPv4TCPChecksum(t *testing.T) {
	var tcpPackets = [][]byte{
		{0xc0, 0xff, 0xee, 0x00, 0xde, 0xad, 0x4e, 0x8b, 0x3a, 0xf9, 0xfb, 0x6b, 0x08, 0x00, 0x45, 0x00,
			0x00, 0x3c, 0x01, 0xbe, 0x40, 0x00, 0x40, 0x06, 0xa3, 0xaa, 0xc0, 0xa8, 0x0a, 0x01, 0xc0, 0xa8,
			0x0a, 0x02, 0xe7, 0x0a, 0x00, 0x50, 0x40, 0x60, 0xd5, 0xcc, 0x00, 0x00, 0x00, 0x00, 0xa0, 0x02,
			0xfa, 0xf0, 0x62, 0xbc, 0x00, 0x00, 0x02, 0x04, 0x05, 0xb4, 0x04, 0x02, 0x08, 0x0a, 0xbb, 0xac,
			0x9b, 0xca, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},
		{0xc0, 0xff, 0xee, 0x00, 0xde, 0xad, 0x4e, 0x8b, 0x3a, 0xf9, 0xfb, 0x6b, 0x08, 0x00, 0x45, 0x00,
			0x00, 0x3c, 0xfa, 0xfd, 0x40, 0x00, 0x40, 0x06, 0xaa, 0x6a, 0xc0, 0xa8, 0x0a, 0x01, 0xc0, 0xa8,
			0x0a, 0x02, 0xe7, 0x0e, 0x00, 0x50, 0x9c, 0xdc, 0xfe, 0x05, 0x00, 0x00, 0x00, 0x00, 0xa0, 0x02,
			0xfa, 0xf0, 0xde, 0x02, 0x00, 0x00, 0x02, 0x04, 0x05, 0xb4, 0x04, 0x02, 0x08, 0x0a, 0xbb, 0xac,
			0x9b, 0xca, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},
	}
	for _, tcpPacket := range tcpPackets {
		var vld lneto.Validator
		efrm, err := ethernet.NewFrame(tcpPacket)
		if err != nil {
			t.Fatal(err)
		}
		efrm.ValidateSize(&vld)
		ifrm, err := ipv4.NewFrame(efrm.Payload())
		if err != nil {
			t.Fatal(err)
		}
		ifrm.ValidateExceptCRC(&vld)
		tfrm, err := tcp.NewFrame(ifrm.Payload())
		if err != nil {
			t.Fatal(err)
		}
		tfrm.ValidateExceptCRC(&vld)
		if err := vld.Err(); err != nil {
			t.Fatal(err)
		}

		wantCRC := ifrm.CRC()
		ifrm.SetCRC(0)
		gotCRC := ifrm.CalculateHeaderCRC()
		if wantCRC != gotCRC {
			t.Errorf("IPv4 CRC miscalculated. want %x, got %x", wantCRC, gotCRC)
		}
		ifrm.SetCRC(wantCRC)

		wantCRC = tfrm.CRC()
		var crc lneto.CRC791
		ifrm.CRCWriteTCPPseudo(&crc)
		tfrm.SetCRC(0)
		gotCRC = crc.PayloadSum16(tfrm.RawData())
		if wantCRC != gotCRC {
			t.Errorf("TCP CRC miscalculated. want %x, got %x", wantCRC, gotCRC)
		}
		tfrm.SetCRC(wantCRC)
	}
}
