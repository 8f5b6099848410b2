package arp

import (
	"log/slog"
	"time"

	"github.com/hitsznet/netlab/ethernet"
)

// EthernetSender is the narrow contract an [Engine] needs of its transport:
// frame the given ARP payload in an Ethernet header addressed to dst and
// hand it to the driver.
type EthernetSender interface {
	SendEthernet(dst [6]byte, ethType ethernet.Type, payload []byte) error
}

// Config bundles the fixed identity and timing parameters an Engine is
// constructed with.
type Config struct {
	LocalIP     [4]byte
	LocalMAC    [6]byte
	Timeout     time.Duration // ARP_TIMEOUT_SEC: table entry lifetime.
	MinInterval time.Duration // ARP_MIN_INTERVAL: minimum spacing between requests for the same IP.
	Now         func() time.Time
	Send        EthernetSender
	Log         *slog.Logger
}

// Engine implements the table lookup, pending-send queue and wire handling
// described for ARP: resolving IPv4 addresses to hardware addresses over a
// single broadcast LAN segment.
type Engine struct {
	cfg     Config
	Table   Table
	Pending Pending
}

// NewEngine constructs an Engine ready to use. cfg.Now defaults to
// time.Now and cfg.Log to slog.Default() if left nil.
func NewEngine(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Engine{cfg: cfg}
}

// Init sends a gratuitous ARP request for the local IP, announcing our
// presence on the segment.
func (e *Engine) Init() error {
	return e.sendRequest(e.cfg.LocalIP, broadcastMAC)
}

var broadcastMAC = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// In processes a received ARP packet whose Ethernet source hardware address
// was srcMAC. Malformed or unsupported packets are dropped silently.
//
// Any accepted packet unconditionally refreshes the table entry for its
// sender, then: if a packet is pending transmission to that sender, it is
// flushed immediately, regardless of whether this packet was the reply that
// caused it or merely another ARP packet from the same host; otherwise, a
// request addressed to our IP elicits a reply.
func (e *Engine) In(srcMAC [6]byte, frm Frame) {
	if len(frm.RawData()) < sizeHeaderv4 {
		return
	}
	htype, hlen := frm.Hardware()
	ptype, plen := frm.Protocol()
	op := frm.Operation()
	if htype != 1 || ptype != ethernet.TypeIPv4 || hlen != 6 || plen != 4 {
		return
	}
	if op != OpRequest && op != OpReply {
		return
	}
	senderHW, senderIP := frm.Sender4()
	now := e.cfg.Now()
	e.Table.Set(*senderIP, *senderHW, now)

	if pkt, ok := e.Pending.Take(*senderIP); ok {
		if err := e.cfg.Send.SendEthernet(*senderHW, ethernet.TypeIPv4, pkt); err != nil {
			e.cfg.Log.Debug("arp: flush pending send failed", slog.Any("err", err))
		}
		return
	}
	if op != OpRequest {
		return
	}
	_, targetIP := frm.Target4()
	if *targetIP != e.cfg.LocalIP {
		return
	}
	if err := e.reply(*senderHW, *senderIP); err != nil {
		e.cfg.Log.Debug("arp: reply failed", slog.Any("err", err))
	}
}

// Out resolves dstIP to a hardware address and, on a cache hit, sends pkt
// immediately via the Ethernet sender. On a miss it queues pkt (at most one
// packet per unresolved destination; a second Out call for the same
// unresolved IP while one is queued drops the new packet) and broadcasts an
// ARP request.
func (e *Engine) Out(pkt []byte, dstIP [4]byte) error {
	now := e.cfg.Now()
	if mac, ok := e.Table.Lookup(dstIP, now, e.cfg.Timeout); ok {
		return e.cfg.Send.SendEthernet(mac, ethernet.TypeIPv4, pkt)
	}
	e.Pending.EvictStale(now, e.cfg.MinInterval)
	if e.Pending.Has(dstIP) {
		e.cfg.Log.Debug("arp: dropping send, resolution already pending", slog.Any("ip", dstIP))
		return nil
	}
	e.Pending.Store(dstIP, pkt, now)
	return e.sendRequest(dstIP, broadcastMAC)
}

func (e *Engine) sendRequest(targetIP [4]byte, dstMAC [6]byte) error {
	var raw [sizeHeaderv4]byte
	frm, err := NewFrame(raw[:])
	if err != nil {
		return err
	}
	frm.SetHardware(1, 6)
	frm.SetProtocol(ethernet.TypeIPv4, 4)
	frm.SetOperation(OpRequest)
	senderHW, senderIP := frm.Sender4()
	*senderHW = e.cfg.LocalMAC
	*senderIP = e.cfg.LocalIP
	_, tgtIP := frm.Target4()
	*tgtIP = targetIP
	return e.cfg.Send.SendEthernet(dstMAC, ethernet.TypeARP, raw[:])
}

func (e *Engine) reply(dstMAC [6]byte, dstIP [4]byte) error {
	var raw [sizeHeaderv4]byte
	frm, err := NewFrame(raw[:])
	if err != nil {
		return err
	}
	frm.SetHardware(1, 6)
	frm.SetProtocol(ethernet.TypeIPv4, 4)
	frm.SetOperation(OpReply)
	senderHW, senderIP := frm.Sender4()
	*senderHW = e.cfg.LocalMAC
	*senderIP = e.cfg.LocalIP
	tgtHW, tgtIP := frm.Target4()
	*tgtHW = dstMAC
	*tgtIP = dstIP
	return e.cfg.Send.SendEthernet(dstMAC, ethernet.TypeARP, raw[:])
}
