package tcp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitsznet/netlab"
	"github.com/hitsznet/netlab/ipv4"
)

// IPv4Sender is the narrow contract an [Engine] needs of its transport:
// wrap segment (a complete TCP header+payload, already checksummed) in an
// IPv4 packet addressed to dstIP and hand it off to the link layer.
type IPv4Sender interface {
	SendTCPSegment(dstIP [4]byte, segment []byte) error
}

// Config bundles the fixed identity and buffer-sizing parameters an Engine
// is constructed with.
type Config struct {
	LocalIP    [4]byte
	Send       IPv4Sender
	Log        *slog.Logger
	Now        func() time.Time
	RxBufSize int // per-connection receive buffer size, default 4096.
	TxBufSize int // per-connection send buffer size, default 4096.
}

const defaultBufSize = 4096

// Engine implements the passive-open-only server-side TCP state machine:
// connections are only ever created in response to an inbound segment to a
// registered listening port, never dialed out.
type Engine struct {
	cfg   Config
	table *Table
}

// NewEngine constructs an Engine ready to use.
func NewEngine(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.RxBufSize == 0 {
		cfg.RxBufSize = defaultBufSize
	}
	if cfg.TxBufSize == 0 {
		cfg.TxBufSize = defaultBufSize
	}
	return &Engine{cfg: cfg, table: newTable()}
}

var errPortInUse = errors.New("tcp: port already registered")

// Open registers handler to receive connections on port. tcp_open in the
// original design.
func (e *Engine) Open(port uint16, handler Handler) error {
	if _, exists := e.table.listeners[port]; exists {
		return errPortInUse
	}
	e.table.listeners[port] = handler
	return nil
}

// Close releases every connection whose local port is port and
// deregisters the listener. tcp_close in the original design.
func (e *Engine) Close(port uint16) {
	delete(e.table.listeners, port)
	for k := range e.table.conns {
		if k.localPort == port {
			delete(e.table.conns, k)
		}
	}
}

// Input processes one inbound TCP segment carried in an already
// size-validated IPv4 packet. Malformed or unexpected segments are
// dropped silently per the ingress error policy.
func (e *Engine) Input(ifrm ipv4.Frame, tfrm Frame) {
	if len(tfrm.RawData()) < sizeHeader {
		return
	}
	var v lneto.Validator
	tfrm.ValidateSize(&v)
	if v.Err() != nil {
		e.cfg.Log.Debug("tcp: bad segment size, dropping", slog.Any("err", v.Err()))
		return
	}
	if !tfrm.ValidateChecksum(ifrm) {
		e.cfg.Log.Debug("tcp: bad checksum, dropping")
		return
	}
	dstPort := tfrm.DestinationPort()
	handler, ok := e.table.Listener(dstPort)
	if !ok {
		e.cfg.Log.Debug("tcp: no listener", slog.Int("port", int(dstPort)))
		return
	}
	srcIP := *ifrm.SourceAddr()
	k := connKey{remoteIP: srcIP, remotePort: tfrm.SourcePort(), localPort: dstPort}
	c, existed := e.table.Lookup(k)
	if !existed {
		c = &Conn{
			LocalPort:  dstPort,
			RemotePort: tfrm.SourcePort(),
			RemoteIP:   srcIP,
			State:      StateListen,
			handler:    handler,
		}
		e.table.conns[k] = c
	}
	e.step(c, tfrm)
}

func (e *Engine) step(c *Conn, tfrm Frame) {
	_, flags := tfrm.OffsetAndFlags()

	if c.State == StateListen {
		e.stepListen(c, tfrm, flags)
		return
	}

	// Pre-switch guards, applied to every state but LISTEN.
	if tfrm.Seq() != c.ack {
		e.send(c, FlagACK|FlagSYN, nil)
		return
	}
	if flags.HasAny(FlagRST) {
		e.release(c)
		return
	}

	switch c.State {
	case StateSynRcvd:
		e.stepSynRcvd(c, flags)
	case StateEstablished:
		e.stepEstablished(c, tfrm, flags)
	case StateFinWait1:
		e.stepFinWait1(c, flags)
	case StateFinWait2:
		e.stepFinWait2(c, flags)
	case StateLastAck:
		e.stepLastAck(c, flags)
	default:
		e.cfg.Log.Error("tcp: unexpected state", slog.String("state", c.State.String()), slog.Any("key", c.key()))
		panic(fmt.Sprintf("%v: %v for connection %+v", errUnexpectedState, c.State, c.key()))
	}
}

func (e *Engine) stepListen(c *Conn, tfrm Frame, flags Flags) {
	if flags.HasAny(FlagRST) {
		e.release(c)
		return
	}
	if !flags.HasAny(FlagSYN) {
		e.rawReset(c, tfrm.Seq()+1)
		return
	}
	c.unackSeq = e.isn()
	c.nextSeq = c.unackSeq
	c.ack = tfrm.Seq() + 1
	c.remoteWin = tfrm.WindowSize()
	c.rxBuf.Buf = make([]byte, e.cfg.RxBufSize)
	c.txBuf.Buf = make([]byte, e.cfg.TxBufSize)
	c.State = StateSynRcvd
	e.send(c, FlagSYN|FlagACK, nil)
}

// rawReset replies to a non-SYN, non-RST segment sent to a LISTEN port: no
// connection exists yet, so next_seq is simply 0.
func (e *Engine) rawReset(c *Conn, ack uint32) {
	var raw [sizeHeader]byte
	tfrm, _ := NewFrame(raw[:])
	tfrm.SetSourcePort(c.LocalPort)
	tfrm.SetDestinationPort(c.RemotePort)
	tfrm.SetSeq(0)
	tfrm.SetAck(ack)
	tfrm.SetOffsetAndFlags(5, FlagACK|FlagRST)
	pseudo := e.pseudoFrame(c.RemoteIP, len(raw))
	tfrm.SetIPv4Checksum(pseudo)
	if err := e.cfg.Send.SendTCPSegment(c.RemoteIP, raw[:]); err != nil {
		e.cfg.Log.Debug("tcp: reset send failed", slog.Any("err", err))
	}
}

func (e *Engine) stepSynRcvd(c *Conn, flags Flags) {
	if !flags.HasAny(FlagACK) {
		return
	}
	c.unackSeq++
	c.State = StateEstablished
	c.handler(c, EventConnected)
}

func (e *Engine) stepEstablished(c *Conn, tfrm Frame, flags Flags) {
	if flags.HasAny(FlagACK) {
		ack := tfrm.Ack()
		if seqInOpenInterval(c.unackSeq, ack, c.nextSeq) {
			acked := int(ack - c.unackSeq)
			c.unackSeq = ack
			if acked > 0 && c.txBuf.Buffered() > 0 {
				_ = c.txBuf.ReadDiscard(min(acked, c.txBuf.Buffered()))
			}
		}
	}
	payload := tfrm.Payload()
	if len(payload) > 0 {
		if _, err := c.rxBuf.Write(payload); err != nil {
			e.cfg.Log.Debug("tcp: rx buffer full, dropping segment", slog.Any("err", err))
			return
		}
		c.ack += uint32(len(payload))
	}
	if flags.HasAny(FlagFIN) {
		c.State = StateLastAck
		c.ack++
		e.send(c, FlagFIN|FlagACK, nil)
		return
	}
	if len(payload) > 0 {
		c.handler(c, EventDataRecv)
		e.shipTxBuf(c)
	}
}

func (e *Engine) stepFinWait1(c *Conn, flags Flags) {
	if flags.HasAll(FlagFIN | FlagACK) {
		e.release(c)
		return
	}
	if flags.HasAny(FlagACK) {
		c.State = StateFinWait2
	}
}

func (e *Engine) stepFinWait2(c *Conn, flags Flags) {
	if flags.HasAny(FlagFIN) {
		c.ack++
		e.send(c, FlagACK, nil)
		e.release(c)
	}
}

func (e *Engine) stepLastAck(c *Conn, flags Flags) {
	if flags.HasAny(FlagACK) {
		c.handler(c, EventClosed)
		e.release(c)
	}
}

func (e *Engine) release(c *Conn) {
	delete(e.table.conns, c.key())
}

// seqInOpenInterval reports whether mid lies strictly between lo and hi in
// sequence space (mod 2**32), handling the no-progress (lo==hi) case as
// false.
func seqInOpenInterval(lo, mid, hi uint32) bool {
	d1 := mid - lo
	d2 := hi - lo
	return d1 != 0 && d1 < d2
}

// isn draws a fresh initial sequence number.
func (e *Engine) isn() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(e.cfg.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(b[:])
}

func (e *Engine) pseudoFrame(remoteIP [4]byte, tcpLen int) ipv4.Frame {
	var raw [20]byte
	frm, _ := ipv4.NewFrame(raw[:])
	frm.SetVersionAndIHL(4, 5)
	frm.SetTotalLength(uint16(20 + tcpLen))
	frm.SetProtocol(lneto.IPProtoTCP)
	*frm.SourceAddr() = e.cfg.LocalIP
	*frm.DestinationAddr() = remoteIP
	return frm
}

// send builds and transmits a segment carrying payload with the given
// flags. The wire sequence number is next_seq-len(payload) so that the
// header names the first byte of the payload; SYN and FIN each advance
// next_seq by one afterwards since they consume a sequence number.
func (e *Engine) send(c *Conn, flags Flags, payload []byte) error {
	buf := make([]byte, sizeHeader+len(payload))
	tfrm, err := NewFrame(buf)
	if err != nil {
		return err
	}
	tfrm.ClearHeader()
	tfrm.SetSourcePort(c.LocalPort)
	tfrm.SetDestinationPort(c.RemotePort)
	tfrm.SetSeq(c.nextSeq - uint32(len(payload)))
	tfrm.SetAck(c.ack)
	tfrm.SetOffsetAndFlags(5, flags)
	tfrm.SetWindowSize(c.remoteWin)
	copy(tfrm.Payload(), payload)
	pseudo := e.pseudoFrame(c.RemoteIP, len(buf))
	tfrm.SetIPv4Checksum(pseudo)
	err = e.cfg.Send.SendTCPSegment(c.RemoteIP, buf)
	if flags.HasAny(FlagSYN | FlagFIN) {
		c.nextSeq++
	}
	return err
}

// shipTxBuf sends the entirety of the currently buffered, not-yet-acked
// transmit data as a single ACK-flagged segment.
func (e *Engine) shipTxBuf(c *Conn) {
	n := c.txBuf.Buffered()
	if n == 0 {
		e.send(c, FlagACK, nil)
		return
	}
	payload := make([]byte, n)
	c.txBuf.ReadPeek(payload)
	e.send(c, FlagACK, payload)
}

// Write appends data to c's send buffer (tcp_connect_write). It refuses
// the write and returns 0 if it would advance the unacknowledged window
// to or past the peer's advertised window; the caller should retry. If the
// buffer itself is full, it is compacted by shipping its current contents
// immediately and 0 is returned so the caller retries.
func (e *Engine) Write(c *Conn, src []byte) int {
	if uint32(c.Unacked()+len(src)) >= uint32(c.remoteWin) {
		return 0
	}
	n, err := c.txBuf.Write(src)
	if err != nil {
		e.shipTxBuf(c)
		return 0
	}
	c.nextSeq += uint32(n)
	return n
}

// Read copies up to min(len(dst), buffered) bytes from c's receive buffer
// (tcp_connect_read).
func (e *Engine) Read(c *Conn, dst []byte) int {
	n, err := c.rxBuf.Read(dst)
	if err != nil {
		return 0
	}
	return n
}

// ConnectClose begins or completes closing c (tcp_connect_close). From
// ESTABLISHED this flushes pending data, sends FIN+ACK and moves to
// FIN-WAIT-1; from any other state the connection is released immediately
// with no FIN exchange.
func (e *Engine) ConnectClose(c *Conn) {
	if c.State != StateEstablished {
		e.release(c)
		return
	}
	n := c.txBuf.Buffered()
	var payload []byte
	if n > 0 {
		payload = make([]byte, n)
		c.txBuf.ReadPeek(payload)
	}
	c.State = StateFinWait1
	e.send(c, FlagFIN|FlagACK, payload)
}
