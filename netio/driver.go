// Package netio provides the Ethernet frame transport the stack runs
// above: the Driver contract plus an in-memory loopback pair for tests and
// a Linux AF_PACKET implementation for real interfaces.
package netio

// Driver is the two-function contract the stack requires of its link
// layer. Send transmits a fully-framed Ethernet frame. Recv is
// non-blocking: it returns (0, nil) when no frame is currently available.
type Driver interface {
	Send(frame []byte) error
	Recv(into []byte) (int, error)
}
