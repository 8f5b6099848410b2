package tcp_test

import (
	"testing"
	"time"

	"github.com/hitsznet/netlab/ipv4"
	"github.com/hitsznet/netlab/tcp"
)

type fakeSender struct {
	sent [][]byte
}

func (f *fakeSender) SendTCPSegment(dstIP [4]byte, segment []byte) error {
	cp := make([]byte, len(segment))
	copy(cp, segment)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeSender) last() tcp.Frame {
	frm, _ := tcp.NewFrame(f.sent[len(f.sent)-1])
	return frm
}

var localIP = [4]byte{10, 0, 0, 1}
var remoteIP = [4]byte{10, 0, 0, 2}

func newEngine(t *testing.T) (*tcp.Engine, *fakeSender) {
	t.Helper()
	s := &fakeSender{}
	e := tcp.NewEngine(tcp.Config{
		LocalIP: localIP,
		Send:    s,
		Now:     func() time.Time { return time.Unix(1000, 0) },
	})
	return e, s
}

func ipFrame(t *testing.T, payloadLen int) ipv4.Frame {
	t.Helper()
	buf := make([]byte, 20+payloadLen)
	frm, err := ipv4.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	frm.SetVersionAndIHL(4, 5)
	frm.SetTotalLength(uint16(len(buf)))
	frm.SetProtocol(6)
	*frm.SourceAddr() = remoteIP
	*frm.DestinationAddr() = localIP
	return frm
}

func buildSegment(t *testing.T, seq, ack uint32, flags tcp.Flags, win uint16, payload []byte, ifrm ipv4.Frame) tcp.Frame {
	t.Helper()
	buf := make([]byte, 20+len(payload))
	tfrm, err := tcp.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	tfrm.SetSourcePort(5000)
	tfrm.SetDestinationPort(80)
	tfrm.SetSeq(seq)
	tfrm.SetAck(ack)
	tfrm.SetOffsetAndFlags(5, flags)
	tfrm.SetWindowSize(win)
	copy(tfrm.Payload(), payload)
	tfrm.SetIPv4Checksum(ifrm)
	return tfrm
}

func TestHandshakeAndClose(t *testing.T) {
	e, s := newEngine(t)
	var events []tcp.Event
	err := e.Open(80, func(c *tcp.Conn, ev tcp.Event) { events = append(events, ev) })
	if err != nil {
		t.Fatal(err)
	}

	ifrm := ipFrame(t, 0)
	syn := buildSegment(t, 100, 0, tcp.FlagSYN, 4096, nil, ifrm)
	e.Input(ifrm, syn)

	if len(s.sent) != 1 {
		t.Fatalf("want SYN+ACK sent, got %d segments", len(s.sent))
	}
	reply := s.last()
	_, flags := reply.OffsetAndFlags()
	if !flags.HasAll(tcp.FlagSYN | tcp.FlagACK) {
		t.Fatalf("want SYN+ACK, got %v", flags)
	}
	if reply.Ack() != 101 {
		t.Fatalf("want ack=101, got %d", reply.Ack())
	}

	// Client ACKs the handshake.
	isn := reply.Seq()
	ackSeg := buildSegment(t, 101, isn+1, tcp.FlagACK, 4096, nil, ifrm)
	e.Input(ifrm, ackSeg)

	if len(events) != 1 || events[0] != tcp.EventConnected {
		t.Fatalf("want CONNECTED event, got %v", events)
	}

	// Client sends data.
	dataSeg := buildSegment(t, 101, isn+1, tcp.FlagACK, 4096, []byte("GET / HTTP/1.0\r\n"), ifrm)
	e.Input(ifrm, dataSeg)

	if len(events) != 2 || events[1] != tcp.EventDataRecv {
		t.Fatalf("want DATA_RECV event, got %v", events)
	}
	if len(s.sent) != 2 {
		t.Fatalf("want ack segment sent in response to data, got %d", len(s.sent))
	}

	// Client sends FIN.
	finSeg := buildSegment(t, 117, isn+1, tcp.FlagFIN|tcp.FlagACK, 4096, nil, ifrm)
	e.Input(ifrm, finSeg)
	if len(s.sent) != 3 {
		t.Fatalf("want FIN+ACK sent in reply, got %d", len(s.sent))
	}
	last := s.last()
	_, lastFlags := last.OffsetAndFlags()
	if !lastFlags.HasAll(tcp.FlagFIN | tcp.FlagACK) {
		t.Fatalf("want FIN+ACK reply, got %v", lastFlags)
	}

	// Client ACKs our FIN, completing LAST_ACK -> closed.
	closeSeg := buildSegment(t, 118, last.Seq()+1, tcp.FlagACK, 4096, nil, ifrm)
	e.Input(ifrm, closeSeg)
	if len(events) != 3 || events[2] != tcp.EventClosed {
		t.Fatalf("want CLOSED event, got %v", events)
	}
}

func TestListenRejectsNonSYN(t *testing.T) {
	e, s := newEngine(t)
	e.Open(80, func(c *tcp.Conn, ev tcp.Event) {})
	ifrm := ipFrame(t, 0)
	ackOnly := buildSegment(t, 50, 0, tcp.FlagACK, 4096, nil, ifrm)
	e.Input(ifrm, ackOnly)
	if len(s.sent) != 1 {
		t.Fatalf("want a single reset segment, got %d", len(s.sent))
	}
	reply := s.last()
	_, flags := reply.OffsetAndFlags()
	if !flags.HasAll(tcp.FlagACK | tcp.FlagRST) {
		t.Fatalf("want ACK+RST reset, got %v", flags)
	}
	if reply.Seq() != 0 {
		t.Fatalf("want next_seq=0 on blind reset, got %d", reply.Seq())
	}
}

func TestNoListenerDropsSilently(t *testing.T) {
	e, s := newEngine(t)
	ifrm := ipFrame(t, 0)
	syn := buildSegment(t, 1, 0, tcp.FlagSYN, 4096, nil, ifrm)
	e.Input(ifrm, syn)
	if len(s.sent) != 0 {
		t.Fatalf("want no reply for unregistered port, got %d", len(s.sent))
	}
}
