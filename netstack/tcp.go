package netstack

import (
	"github.com/hitsznet/netlab/ipv4"
	"github.com/hitsznet/netlab/tcp"
)

// tcpIn hands the TCP segment currently in s.rx to the TCP engine.
func (s *Stack) tcpIn(ifrm ipv4.Frame) {
	if s.rx.Len() < 20 {
		return
	}
	tfrm, err := tcp.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	s.tcp.Input(ifrm, tfrm)
}
