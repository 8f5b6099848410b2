//go:build linux

package netio

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// RawSocket is a [Driver] backed by an AF_PACKET/SOCK_RAW socket bound to a
// single network interface. It sends and receives complete Ethernet frames.
type RawSocket struct {
	fd   int
	addr unix.SockaddrLinklayer
}

// NewRawSocket opens an AF_PACKET socket bound to the named interface,
// listening for every EtherType.
func NewRawSocket(interfaceName string) (*RawSocket, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, fmt.Errorf("netio: interface %s not found: %w", interfaceName, err)
	}
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("netio: socket: %w", err)
	}
	r := &RawSocket{
		fd: fd,
		addr: unix.SockaddrLinklayer{
			Protocol: htons(unix.ETH_P_ALL),
			Ifindex:  iface.Index,
		},
	}
	if err := unix.Bind(fd, &r.addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: bind: %w", err)
	}
	return r, nil
}

// Send transmits frame as-is onto the wire.
func (r *RawSocket) Send(frame []byte) error {
	return unix.Sendto(r.fd, frame, 0, &r.addr)
}

// Recv reads the next available frame into into without blocking
// (MSG_DONTWAIT); callers poll in a loop, so EAGAIN, EWOULDBLOCK and EINTR
// are reported as (0, nil) rather than an error.
func (r *RawSocket) Recv(into []byte) (int, error) {
	n, _, err := unix.Recvfrom(r.fd, into, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("netio: recvfrom: %w", err)
	}
	return n, nil
}

// Close releases the underlying socket.
func (r *RawSocket) Close() error {
	return unix.Close(r.fd)
}

func htons(i uint16) uint16 {
	return (i<<8)&0xff00 | i>>8
}
