package httpserver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitsznet/netlab/tcp"
)

// fakeStack is a minimal Stack stub that feeds a fixed inbound byte stream
// to TCPRead and records everything written through TCPWrite, without any
// real TCP state machine behind it.
type fakeStack struct {
	inbound []byte
	outbound bytes.Buffer
	closed  bool
	opened  map[uint16]tcp.Handler
}

func newFakeStack(inbound string) *fakeStack {
	return &fakeStack{inbound: []byte(inbound), opened: map[uint16]tcp.Handler{}}
}

func (f *fakeStack) TCPOpen(port uint16, handler tcp.Handler) error {
	f.opened[port] = handler
	return nil
}
func (f *fakeStack) TCPClose(port uint16) { delete(f.opened, port) }
func (f *fakeStack) TCPWrite(c *tcp.Conn, data []byte) int {
	f.outbound.Write(data)
	return len(data)
}
func (f *fakeStack) TCPRead(c *tcp.Conn, dst []byte) int {
	if len(f.inbound) == 0 {
		return 0
	}
	n := copy(dst, f.inbound)
	f.inbound = f.inbound[n:]
	return n
}
func (f *fakeStack) TCPConnectClose(c *tcp.Conn) { f.closed = true }
func (f *fakeStack) Poll()                       {}

func TestGetLineSplitsOnNewlineAndStripsCR(t *testing.T) {
	fs := newFakeStack("GET /index.html HTTP/1.0\r\nmore data")
	srv, err := New(fs, Config{DocRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	line := srv.getLine(&tcp.Conn{}, maxRequestLineLen)
	if line != "GET /index.html HTTP/1.0" {
		t.Fatalf("got %q", line)
	}
}

func TestGetLineStopsAtMaxLen(t *testing.T) {
	fs := newFakeStack("abcdefghij")
	srv, err := New(fs, Config{DocRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	line := srv.getLine(&tcp.Conn{}, 5)
	if line != "abcde" {
		t.Fatalf("got %q", line)
	}
}

func TestSendFileServesExistingFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi there"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := newFakeStack("")
	srv, err := New(fs, Config{DocRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	srv.sendFile(&tcp.Conn{}, "/hello.txt")
	out := fs.outbound.String()
	if !bytes.Contains([]byte(out), []byte("200 OK")) {
		t.Fatalf("want 200 response, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("hi there")) {
		t.Fatalf("want file body, got %q", out)
	}
}

func TestSendFileMissingReturns404(t *testing.T) {
	fs := newFakeStack("")
	srv, err := New(fs, Config{DocRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	srv.sendFile(&tcp.Conn{}, "/missing.txt")
	out := fs.outbound.String()
	if !bytes.Contains([]byte(out), []byte("404 NOT FOUND")) {
		t.Fatalf("want 404 response, got %q", out)
	}
}

func TestSendFileRejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	if err := os.WriteFile(outside, []byte("top secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outside)

	fs := newFakeStack("")
	srv, err := New(fs, Config{DocRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	srv.sendFile(&tcp.Conn{}, "/../secret.txt")
	out := fs.outbound.String()
	if bytes.Contains([]byte(out), []byte("top secret")) {
		t.Fatalf("path traversal served file outside doc root: %q", out)
	}
}

func TestServeHandlesGetRequestEndToEnd(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>hi</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := newFakeStack("GET /index.html HTTP/1.0\r\n\r\n")
	srv, err := New(fs, Config{DocRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	c := &tcp.Conn{}
	srv.serve(c)
	if !fs.closed {
		t.Fatal("want connection closed after serving one request")
	}
	if !bytes.Contains(fs.outbound.Bytes(), []byte("<html>hi</html>")) {
		t.Fatalf("want response body, got %q", fs.outbound.String())
	}
}

func TestFIFOQueuesConnectionsOnConnect(t *testing.T) {
	fs := newFakeStack("")
	srv, err := New(fs, Config{DocRoot: t.TempDir(), FIFOSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Open(); err != nil {
		t.Fatal(err)
	}
	handler := fs.opened[80]
	c1 := &tcp.Conn{}
	handler(c1, tcp.EventConnected)
	if srv.fifo.count != 1 {
		t.Fatalf("want 1 queued connection, got %d", srv.fifo.count)
	}
	// FIFO is now full; a second connect should be refused and closed.
	c2 := &tcp.Conn{}
	handler(c2, tcp.EventConnected)
	if !fs.closed {
		t.Fatal("want overflow connection closed")
	}
}
