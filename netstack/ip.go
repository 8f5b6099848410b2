package netstack

import (
	"log/slog"

	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/icmp"
	"github.com/hitsznet/netlab/ipv4"
)

// ipIn validates and dispatches the IPv4 datagram currently in s.rx.
func (s *Stack) ipIn(srcMAC [6]byte) {
	if s.rx.Len() < 20 {
		return
	}
	ifrm, err := ipv4.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	var v lneto.Validator
	ifrm.ValidateExceptCRC(&v)
	if v.Err() != nil {
		s.cfg.Log.Debug("netstack: bad ip header", slog.Any("err", v.Err()))
		return
	}
	saved := ifrm.CRC()
	ifrm.SetCRC(0)
	got := ifrm.CalculateHeaderCRC()
	ifrm.SetCRC(saved)
	if got != saved {
		s.cfg.Log.Debug("netstack: bad ip checksum")
		return
	}
	if *ifrm.DestinationAddr() != s.cfg.LocalIP {
		return
	}
	tl := int(ifrm.TotalLength())
	if s.rx.Len() > tl {
		if err := s.rx.RemovePadding(s.rx.Len() - tl); err != nil {
			return
		}
	}
	hl := ifrm.HeaderLength()
	proto := ifrm.Protocol()
	srcIP := *ifrm.SourceAddr()

	switch proto {
	case lneto.IPProtoICMP, lneto.IPProtoUDP, lneto.IPProtoTCP:
		// Ingress never compacts: a later no-listener UDP path needs to
		// push this same header back on, and Compact would overwrite the
		// bytes it relies on.
		if _, err := s.rx.RemoveHeader(hl); err != nil {
			return
		}
		switch proto {
		case lneto.IPProtoICMP:
			s.icmpIn(srcIP)
		case lneto.IPProtoUDP:
			s.udpIn(ifrm, srcIP, hl)
		case lneto.IPProtoTCP:
			s.tcpIn(ifrm)
		}
	default:
		end := hl + 8
		if end > s.rx.Len() {
			end = s.rx.Len()
		}
		offending := append([]byte(nil), s.rx.Bytes()[:end]...)
		s.sendUnreachable(srcIP, offending, icmp.CodeProtocolUnreachable)
	}
}

// ipOut assigns a fresh datagram ID and emits payload to dstIP, fragmenting
// it to fit the configured MTU if it exceeds it. Fragment size is derived
// from the configured MTU and rounded down to a multiple of 8, since RFC 791
// requires every non-final fragment's offset to land on an 8-byte boundary.
func (s *Stack) ipOut(payload []byte, dstIP [4]byte, proto lneto.IPProto) error {
	s.ipID++
	id := s.ipID
	maxUnfrag := (s.cfg.MTU - 20) &^ 7
	if len(payload) <= maxUnfrag {
		return s.sendDatagram(payload, dstIP, proto, id, 0, false)
	}
	off := 0
	for off < len(payload) {
		end := off + maxUnfrag
		if end > len(payload) {
			end = len(payload)
		}
		moreFragments := end < len(payload)
		if err := s.sendDatagram(payload[off:end], dstIP, proto, id, off/8, moreFragments); err != nil {
			return err
		}
		off = end
	}
	return nil
}

func (s *Stack) sendDatagram(chunk []byte, dstIP [4]byte, proto lneto.IPProto, id uint16, fragOffsetUnits int, moreFragments bool) error {
	raw := make([]byte, 20+len(chunk))
	ifrm, err := ipv4.NewFrame(raw)
	if err != nil {
		return err
	}
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetToS(0)
	ifrm.SetTotalLength(uint16(len(raw)))
	ifrm.SetID(id)
	flags := uint16(fragOffsetUnits) & 0x1fff
	if moreFragments {
		flags |= 0x2000
	}
	ifrm.SetFlags(ipv4.Flags(flags))
	ifrm.SetTTL(s.cfg.DefaultTTL)
	ifrm.SetProtocol(proto)
	*ifrm.SourceAddr() = s.cfg.LocalIP
	*ifrm.DestinationAddr() = dstIP
	copy(ifrm.Payload(), chunk)
	ifrm.SetCRC(0)
	ifrm.SetCRC(ifrm.CalculateHeaderCRC())
	return s.arp.Out(raw, dstIP)
}

// pseudoIPv4 builds a throwaway header solely to feed UDP/TCP pseudo-header
// checksum computations for locally-originated segments.
func (s *Stack) pseudoIPv4(dstIP [4]byte, payloadLen int, proto lneto.IPProto) ipv4.Frame {
	var raw [20]byte
	frm, _ := ipv4.NewFrame(raw[:])
	frm.SetVersionAndIHL(4, 5)
	frm.SetTotalLength(uint16(20 + payloadLen))
	frm.SetProtocol(proto)
	*frm.SourceAddr() = s.cfg.LocalIP
	*frm.DestinationAddr() = dstIP
	return frm
}

// SendTCPSegment implements [tcp.IPv4Sender].
func (s *Stack) SendTCPSegment(dstIP [4]byte, segment []byte) error {
	return s.ipOut(segment, dstIP, lneto.IPProtoTCP)
}
