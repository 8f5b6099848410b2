package netstack

import (
	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/icmp"
)

// icmpIn handles the ICMP message currently in s.rx, replying to echo
// requests and dropping everything else.
func (s *Stack) icmpIn(srcIP [4]byte) {
	if s.rx.Len() < 8 {
		return
	}
	frm, err := icmp.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	if frm.Type() != icmp.TypeEcho || frm.Code() != 0 {
		return
	}
	reply := append([]byte(nil), s.rx.Bytes()...)
	if err := icmp.BuildEchoReply(reply, reply); err != nil {
		return
	}
	_ = s.ipOut(reply, srcIP, lneto.IPProtoICMP)
}

// sendUnreachable builds and sends an ICMP destination-unreachable message
// carrying offending (the failed datagram's header plus its first 8 bytes)
// to dstIP.
func (s *Stack) sendUnreachable(dstIP [4]byte, offending []byte, code icmp.CodeDestinationUnreachable) {
	raw := make([]byte, 8+len(offending))
	if err := icmp.BuildUnreachable(raw, offending, code); err != nil {
		s.cfg.Log.Debug("netstack: failed to build icmp unreachable")
		return
	}
	if err := s.ipOut(raw, dstIP, lneto.IPProtoICMP); err != nil {
		s.cfg.Log.Debug("netstack: failed to send icmp unreachable")
	}
}
