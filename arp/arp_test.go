package arp_test

import (
	"testing"
	"time"

	"github.com/hitsznet/netlab/arp"
	"github.com/hitsznet/netlab/ethernet"
)

type fakeSender struct {
	sent []sentFrame
}

type sentFrame struct {
	dst     [6]byte
	ethType ethernet.Type
	payload []byte
}

func (f *fakeSender) SendEthernet(dst [6]byte, ethType ethernet.Type, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.sent = append(f.sent, sentFrame{dst: dst, ethType: ethType, payload: cp})
	return nil
}

func newEngine(t *testing.T, sender *fakeSender) *arp.Engine {
	t.Helper()
	return arp.NewEngine(arp.Config{
		LocalIP:     [4]byte{192, 168, 1, 1},
		LocalMAC:    [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		Timeout:     10 * time.Minute,
		MinInterval: time.Second,
		Now:         func() time.Time { return time.Unix(1000, 0) },
		Send:        sender,
	})
}

func buildRequest(t *testing.T, senderIP, targetIP [4]byte, senderMAC [6]byte) arp.Frame {
	t.Helper()
	buf := make([]byte, 28)
	frm, err := arp.NewFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	frm.SetHardware(1, 6)
	frm.SetProtocol(ethernet.TypeIPv4, 4)
	frm.SetOperation(arp.OpRequest)
	shw, sip := frm.Sender4()
	*shw = senderMAC
	*sip = senderIP
	_, tip := frm.Target4()
	*tip = targetIP
	return frm
}

func TestInRequestForUsSendsReply(t *testing.T) {
	sender := &fakeSender{}
	e := newEngine(t, sender)
	remoteMAC := [6]byte{1, 2, 3, 4, 5, 6}
	remoteIP := [4]byte{192, 168, 1, 50}
	frm := buildRequest(t, remoteIP, [4]byte{192, 168, 1, 1}, remoteMAC)

	e.In(remoteMAC, frm)

	if len(sender.sent) != 1 {
		t.Fatalf("want 1 reply sent, got %d", len(sender.sent))
	}
	reply, err := arp.NewFrame(sender.sent[0].payload)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Operation() != arp.OpReply {
		t.Fatalf("want reply operation, got %v", reply.Operation())
	}
	if mac, ok := e.Table.Lookup(remoteIP, time.Unix(1000, 0), time.Minute); !ok || mac != remoteMAC {
		t.Fatalf("table not updated with sender binding: %v %v", mac, ok)
	}
}

func TestOutQueuesAndFlushesOnAnyARP(t *testing.T) {
	sender := &fakeSender{}
	e := newEngine(t, sender)
	dst := [4]byte{192, 168, 1, 77}
	payload := []byte("hello-ip-packet")

	if err := e.Out(payload, dst); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 || sender.sent[0].ethType != ethernet.TypeARP {
		t.Fatalf("expected a single ARP request to be broadcast, got %+v", sender.sent)
	}

	// A second Out call to the same unresolved IP must be dropped, not re-queued.
	if err := e.Out([]byte("second"), dst); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("want pending send to be rate-limited, got %d sends", len(sender.sent))
	}

	// Any ARP packet from dst -- even one that isn't a reply to our request -- flushes the pending send.
	remoteMAC := [6]byte{9, 9, 9, 9, 9, 9}
	frm := buildRequest(t, dst, [4]byte{192, 168, 1, 1}, remoteMAC)
	e.In(remoteMAC, frm)

	if len(sender.sent) != 2 { // initial broadcast request + flushed pending send

		t.Fatalf("want pending packet flushed, sent=%+v", sender.sent)
	}
	last := sender.sent[len(sender.sent)-1]
	if string(last.payload) != string(payload) {
		t.Fatalf("flushed payload mismatch: %q", last.payload)
	}
}
