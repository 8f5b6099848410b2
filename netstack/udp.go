package netstack

import (
	"log/slog"

	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/icmp"
	"github.com/hitsznet/netlab/ipv4"
	"github.com/hitsznet/netlab/udp"
)

// udpIn validates and dispatches the UDP datagram currently in s.rx.
// ipHeaderLen is the size of the IP header ip_in already stripped, needed
// to push it back on if no listener is registered for the port.
func (s *Stack) udpIn(ifrm ipv4.Frame, srcIP [4]byte, ipHeaderLen int) {
	if s.rx.Len() < 8 {
		return
	}
	ufrm, err := udp.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	var v lneto.Validator
	ufrm.ValidateSize(&v)
	if v.Err() != nil {
		s.cfg.Log.Debug("netstack: bad udp size", slog.Any("err", v.Err()))
		return
	}
	if !ufrm.ValidateChecksum(ifrm) {
		s.cfg.Log.Debug("netstack: bad udp checksum")
		return
	}
	dstPort := ufrm.DestinationPort()
	handler, ok := s.udpListeners[dstPort]
	if !ok {
		// Restore the IP header via header-push so the offending bytes
		// handed to the unreachable message are the IP header plus the
		// first 8 bytes of the datagram, which for UDP is exactly the UDP
		// header. This mirrors the original design even though the
		// unreachable is addressed to the local IP rather than back to
		// the sender (see DESIGN.md).
		if _, err := s.rx.AddHeader(ipHeaderLen); err != nil {
			return
		}
		end := ipHeaderLen + 8
		if end > s.rx.Len() {
			end = s.rx.Len()
		}
		offending := append([]byte(nil), s.rx.Bytes()[:end]...)
		s.sendUnreachable(s.cfg.LocalIP, offending, icmp.CodePortUnreachable)
		return
	}
	handler(ufrm.Payload(), srcIP, ufrm.SourcePort(), dstPort)
}

// UDPSend builds a UDP datagram and emits it to dstIP:dstPort from srcPort.
func (s *Stack) UDPSend(payload []byte, srcPort uint16, dstIP [4]byte, dstPort uint16) error {
	raw := make([]byte, 8+len(payload))
	ufrm, err := udp.NewFrame(raw)
	if err != nil {
		return err
	}
	ufrm.SetSourcePort(srcPort)
	ufrm.SetDestinationPort(dstPort)
	ufrm.SetLength(uint16(len(raw)))
	copy(ufrm.Payload(), payload)
	pseudo := s.pseudoIPv4(dstIP, len(raw), lneto.IPProtoUDP)
	ufrm.SetIPv4Checksum(pseudo)
	return s.ipOut(raw, dstIP, lneto.IPProtoUDP)
}
