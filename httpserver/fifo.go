package httpserver

import "github.com/hitsznet/netlab/tcp"

// connFIFO is a fixed-capacity ring buffer of newly-connected sockets
// awaiting service, the same shape as the original design's http_fifo_t.
type connFIFO struct {
	buf                []*tcp.Conn
	front, tail, count int
}

func newConnFIFO(size int) *connFIFO {
	return &connFIFO{buf: make([]*tcp.Conn, size)}
}

// in enqueues c, reporting false if the FIFO is full.
func (f *connFIFO) in(c *tcp.Conn) bool {
	if f.count >= len(f.buf) {
		return false
	}
	f.buf[f.front] = c
	f.front = (f.front + 1) % len(f.buf)
	f.count++
	return true
}

// out dequeues the oldest connection, reporting false if the FIFO is empty.
func (f *connFIFO) out() (*tcp.Conn, bool) {
	if f.count == 0 {
		return nil, false
	}
	c := f.buf[f.tail]
	f.tail = (f.tail + 1) % len(f.buf)
	f.count--
	return c, true
}
