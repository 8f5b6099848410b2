package netstack

import "github.com/hitsznet/netlab/arp"

// arpIn hands the ARP payload currently in s.rx to the ARP engine.
func (s *Stack) arpIn(srcMAC [6]byte) {
	frm, err := arp.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	s.arp.In(srcMAC, frm)
}
