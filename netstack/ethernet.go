package netstack

import (
	"log/slog"

	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/ethernet"
)

// ethernetIn parses the 14-byte header off the front of s.rx and dispatches
// the payload by EtherType.
func (s *Stack) ethernetIn() {
	if s.rx.Len() < 14 {
		return
	}
	efrm, err := ethernet.NewFrame(s.rx.Bytes())
	if err != nil {
		return
	}
	var v lneto.Validator
	efrm.ValidateSize(&v)
	if v.Err() != nil {
		s.cfg.Log.Debug("netstack: bad ethernet frame", slog.Any("err", v.Err()))
		return
	}
	srcMAC := *efrm.SourceHardwareAddr()
	etherType := efrm.EtherTypeOrSize()
	if _, err := s.rx.RemoveHeader(efrm.HeaderLength()); err != nil {
		return
	}
	switch etherType {
	case ethernet.TypeARP:
		s.arpIn(srcMAC)
	case ethernet.TypeIPv4:
		s.ipIn(srcMAC)
	default:
		s.cfg.Log.Debug("netstack: unknown ethertype, dropping", slog.Any("ethertype", etherType))
	}
}

// SendEthernet implements [arp.EthernetSender]: it frames payload in an
// Ethernet header addressed to dst and hands it to the driver, padding the
// payload to the minimum transport unit first.
func (s *Stack) SendEthernet(dst [6]byte, ethType ethernet.Type, payload []byte) error {
	return s.ethernetOut(payload, dst, ethType)
}

// ethernetOut builds the outbound frame in s.tx from the payload out:
// reserve headroom, copy the payload in, pad the tail if short, then
// prepend the 14-byte header last.
func (s *Stack) ethernetOut(payload []byte, dst [6]byte, ethType ethernet.Type) error {
	s.tx.Reset()
	s.tx.Init(len(payload))
	copy(s.tx.Bytes(), payload)
	if pad := ethernetMinTransportUnit - len(payload); pad > 0 {
		if err := s.tx.AddPadding(pad); err != nil {
			return err
		}
	}
	if _, err := s.tx.Prepend(14); err != nil {
		return err
	}
	efrm, err := ethernet.NewFrame(s.tx.Bytes())
	if err != nil {
		return err
	}
	*efrm.DestinationHardwareAddr() = dst
	*efrm.SourceHardwareAddr() = s.cfg.LocalMAC
	efrm.SetEtherType(ethType)
	return s.cfg.Driver.Send(s.tx.Bytes())
}
