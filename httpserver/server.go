// Package httpserver implements the minimal GET-only HTTP/1.0 file server
// the stack's TCP engine exists to host: it accepts connections through a
// fixed-capacity FIFO and serves static files below a configured document
// root, blocking on the stack's own poll loop while it waits for data or
// send window rather than running on its own goroutine.
package httpserver

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hitsznet/netlab/tcp"
)

// Stack is the narrow contract Server needs of its transport.
type Stack interface {
	TCPOpen(port uint16, handler tcp.Handler) error
	TCPClose(port uint16)
	TCPWrite(c *tcp.Conn, data []byte) int
	TCPRead(c *tcp.Conn, dst []byte) int
	TCPConnectClose(c *tcp.Conn)
	Poll()
}

// Server is a single-threaded HTTP/1.0 file server driven entirely by its
// owning Stack's Poll loop.
type Server struct {
	cfg   Config
	stack Stack
	fifo  *connFIFO
}

// New constructs a Server bound to stack. Call Open to start listening.
func New(stack Stack, cfg Config) (*Server, error) {
	if err := cfg.ensure(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, stack: stack, fifo: newConnFIFO(cfg.FIFOSize)}, nil
}

// Open registers the server's TCP listener.
func (s *Server) Open() error {
	return s.stack.TCPOpen(s.cfg.Port, s.handleEvent)
}

// Close deregisters the listener and releases its connections.
func (s *Server) Close() {
	s.stack.TCPClose(s.cfg.Port)
}

func (s *Server) handleEvent(c *tcp.Conn, ev tcp.Event) {
	switch ev {
	case tcp.EventConnected:
		if !s.fifo.in(c) {
			s.cfg.Log.Warn("httpserver: connection fifo full, dropping")
			s.stack.TCPConnectClose(c)
		}
	case tcp.EventClosed:
		s.cfg.Log.Debug("httpserver: connection closed")
	}
}

// Run drains every connection currently queued in the FIFO, serving one
// request per connection and closing it afterward. It returns once the
// FIFO is empty; callers interleave it with Stack.Poll in their own loop.
func (s *Server) Run() {
	for {
		c, ok := s.fifo.out()
		if !ok {
			return
		}
		s.serve(c)
	}
}

func (s *Server) serve(c *tcp.Conn) {
	line := s.getLine(c, maxRequestLineLen)
	if line == "" {
		s.stack.TCPConnectClose(c)
		return
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "GET" {
		s.stack.TCPConnectClose(c)
		return
	}
	s.sendFile(c, fields[1])
	s.stack.TCPConnectClose(c)
}

// getLine reads up to maxLen bytes one at a time, blocking on Poll between
// reads, until a newline is seen or the limit is reached. CR bytes are
// dropped so CRLF and bare LF line endings both work.
func (s *Server) getLine(c *tcp.Conn, maxLen int) string {
	buf := make([]byte, 0, maxLen)
	for len(buf) < maxLen {
		var b [1]byte
		if n := s.stack.TCPRead(c, b[:]); n > 0 {
			if b[0] == '\n' {
				break
			}
			if b[0] != '\r' {
				buf = append(buf, b[0])
			}
		}
		s.stack.Poll()
	}
	return string(buf)
}

// httpSend writes data in full, blocking on Poll whenever the connection's
// send window is momentarily exhausted.
func (s *Server) httpSend(c *tcp.Conn, data []byte) {
	sent := 0
	for sent < len(data) {
		sent += s.stack.TCPWrite(c, data[sent:])
		s.stack.Poll()
	}
}

func (s *Server) sendFile(c *tcp.Conn, urlPath string) {
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	clean := path.Clean("/" + urlPath)
	fullPath := filepath.Join(s.cfg.DocRoot, filepath.FromSlash(clean))

	data, err := os.ReadFile(fullPath)
	if err != nil {
		s.send404(c)
		return
	}
	header := fmt.Sprintf("HTTP/1.0 200 OK\r\nContent-Type: %s\r\n\r\n", http.DetectContentType(data))
	s.httpSend(c, []byte(header))
	s.httpSend(c, data)
}

const notFoundBody = "<HTML><TITLE>Not Found</TITLE>\r\n" +
	"The resource specified\r\n" +
	"is unavailable or nonexistent.\r\n" +
	"</BODY></HTML>\r\n"

func (s *Server) send404(c *tcp.Conn) {
	header := "HTTP/1.0 404 NOT FOUND\r\nContent-Type: text/html\r\n\r\n"
	s.httpSend(c, []byte(header+notFoundBody))
}
