package tcp

import "github.com/hitsznet/netlab/internal"

// Handler receives connection lifecycle and data-arrival notifications.
// DATA_RECV handlers may write a reply into the connection with
// [Engine.Write] before returning; the engine ships whatever is buffered
// immediately afterwards.
type Handler func(c *Conn, event Event)

// Conn is a single TCP connection's state, from the handshake through to
// release. The zero value is not usable; connections are created by
// [Engine.Input] when a segment arrives for a listening port and no
// connection exists yet for its remote endpoint.
type Conn struct {
	LocalPort  uint16
	RemotePort uint16
	RemoteIP   [4]byte

	State State

	unackSeq  uint32 // oldest unacknowledged sequence number we've sent.
	nextSeq   uint32 // sequence number of the next byte we will queue to send.
	ack       uint32 // next sequence number we expect to receive.
	remoteWin uint16 // last-seen peer advertised window; never shrunk locally.

	rxBuf internal.Ring
	txBuf internal.Ring

	handler Handler
}

func (c *Conn) key() connKey {
	return connKey{remoteIP: c.RemoteIP, remotePort: c.RemotePort, localPort: c.LocalPort}
}

// Unacked reports how many bytes of queued data have not yet been
// acknowledged by the peer.
func (c *Conn) Unacked() int {
	return int(c.nextSeq - c.unackSeq)
}
