// Package netstack wires the ethernet/arp/ipv4/icmp/udp/tcp layers into a
// single-threaded, cooperatively-polled network stack: a Stack owns every
// piece of mutable state (ARP table, TCP connection table, UDP listener
// map, scratch buffers, interface identity) and makes progress only when
// its Poll method is called.
package netstack

import (
	"log/slog"

	"github.com/hitsznet/netlab/arp"
	"github.com/hitsznet/netlab/buf"
	"github.com/hitsznet/netlab/tcp"
)

// ethernetMinTransportUnit is the minimum Ethernet frame payload; shorter
// payloads are zero-padded to this length before transmission.
const ethernetMinTransportUnit = 46

// UDPHandler is invoked with a datagram's payload and addressing once for
// every inbound packet delivered to a registered port.
type UDPHandler func(payload []byte, srcIP [4]byte, srcPort, dstPort uint16)

// Stack is the single owner of every piece of mutable state the network
// layers need: ARP table and pending-send map, TCP connection table, UDP
// listener map, and the scratch buffers used to parse an inbound frame and
// build an outbound one. Nothing here is safe for concurrent use; Poll must
// be called from a single goroutine (the application helpers that
// re-enter Poll while blocked do so from that same goroutine, which is
// fine by construction).
type Stack struct {
	cfg Config

	arp *arp.Engine
	tcp *tcp.Engine

	udpListeners map[uint16]UDPHandler

	ipID uint16

	// rx holds the single in-flight inbound frame. Layers strip their own
	// header off the front as they dispatch downward; udp_in's
	// port-unreachable path pushes the IP header back on to recover the
	// offending-datagram bytes an ICMP error needs, relying on the fact a
	// header strip never overwrites the bytes it moved past.
	rx *buf.Buffer

	// tx is scratch space for the final Ethernet-framing step of egress:
	// built bottom-up, payload first, with the link header prepended last.
	tx *buf.Buffer
}

// New constructs a Stack ready to use once Init has announced it to the
// segment.
func New(cfg Config) (*Stack, error) {
	if err := cfg.ensure(); err != nil {
		return nil, err
	}
	s := &Stack{
		cfg:          cfg,
		udpListeners: make(map[uint16]UDPHandler),
		rx:           buf.NewBuffer(buf.MaxLen),
		tx:           buf.NewBuffer(buf.MaxLen),
	}
	s.arp = arp.NewEngine(arp.Config{
		LocalIP:     cfg.LocalIP,
		LocalMAC:    cfg.LocalMAC,
		Timeout:     cfg.ARPTimeout,
		MinInterval: cfg.ARPMinInterval,
		Now:         cfg.Clock.Now,
		Send:        s,
		Log:         cfg.Log,
	})
	s.tcp = tcp.NewEngine(tcp.Config{
		LocalIP: cfg.LocalIP,
		Send:    s,
		Log:     cfg.Log,
		Now:     cfg.Clock.Now,
	})
	return s, nil
}

// Init announces the stack's presence with a gratuitous ARP request.
func (s *Stack) Init() error {
	return s.arp.Init()
}

// Poll ingests at most one frame from the driver and runs it through the
// full handler chain synchronously, including any transmissions the
// handlers trigger. It is the stack's only source of progress.
func (s *Stack) Poll() {
	var raw [buf.MaxLen]byte
	n, err := s.cfg.Driver.Recv(raw[:])
	if err != nil {
		s.cfg.Log.Debug("netstack: recv failed", slog.Any("err", err))
		return
	}
	if n == 0 {
		return
	}
	if err := s.rx.Load(raw[:n]); err != nil {
		s.cfg.Log.Debug("netstack: frame too large, dropping", slog.Int("len", n))
		return
	}
	s.ethernetIn()
}

// TCPOpen registers handler to accept connections on port.
func (s *Stack) TCPOpen(port uint16, handler tcp.Handler) error { return s.tcp.Open(port, handler) }

// TCPClose releases every connection on port and deregisters it.
func (s *Stack) TCPClose(port uint16) { s.tcp.Close(port) }

// TCPWrite queues data for c, returning the number of bytes accepted.
func (s *Stack) TCPWrite(c *tcp.Conn, data []byte) int { return s.tcp.Write(c, data) }

// TCPRead copies buffered received data for c into dst.
func (s *Stack) TCPRead(c *tcp.Conn, dst []byte) int { return s.tcp.Read(c, dst) }

// TCPConnectClose begins or completes closing c.
func (s *Stack) TCPConnectClose(c *tcp.Conn) { s.tcp.ConnectClose(c) }

// UDPOpen registers handler to receive datagrams addressed to port.
func (s *Stack) UDPOpen(port uint16, handler UDPHandler) {
	s.udpListeners[port] = handler
}

// UDPClose deregisters port.
func (s *Stack) UDPClose(port uint16) {
	delete(s.udpListeners, port)
}
