package icmp_test

import (
	"bytes"
	"testing"

	"github.com/hitsznet/netlab/icmp"
)

func TestBuildEchoReply(t *testing.T) {
	req := make([]byte, 12)
	frm, err := icmp.NewFrame(req)
	if err != nil {
		t.Fatal(err)
	}
	frm.SetType(icmp.TypeEcho)
	frm.SetCode(0)
	echo := icmp.FrameEcho{Frame: frm}
	echo.SetIdentifier(0x1234)
	echo.SetSequenceNumber(7)
	copy(echo.Data(), []byte("ping"))

	reply := make([]byte, len(req))
	if err := icmp.BuildEchoReply(reply, req); err != nil {
		t.Fatal(err)
	}
	rfrm, err := icmp.NewFrame(reply)
	if err != nil {
		t.Fatal(err)
	}
	if rfrm.Type() != icmp.TypeEchoReply {
		t.Fatalf("want echo reply type, got %v", rfrm.Type())
	}
	rEcho := icmp.FrameEcho{Frame: rfrm}
	if rEcho.Identifier() != 0x1234 || rEcho.SequenceNumber() != 7 {
		t.Fatalf("id/seq not preserved: %x %d", rEcho.Identifier(), rEcho.SequenceNumber())
	}
	if !bytes.Equal(rEcho.Data(), []byte("ping")) {
		t.Fatalf("payload not preserved: %q", rEcho.Data())
	}
	if rfrm.CRC() == 0 {
		t.Fatal("checksum not computed")
	}
}

func TestBuildEchoReplyInPlace(t *testing.T) {
	buf := make([]byte, 12)
	frm, _ := icmp.NewFrame(buf)
	frm.SetType(icmp.TypeEcho)
	echo := icmp.FrameEcho{Frame: frm}
	echo.SetIdentifier(1)
	echo.SetSequenceNumber(1)
	if err := icmp.BuildEchoReply(buf, buf); err != nil {
		t.Fatal(err)
	}
	if frm.Type() != icmp.TypeEchoReply {
		t.Fatalf("want echo reply type, got %v", frm.Type())
	}
}

func TestBuildUnreachable(t *testing.T) {
	offending := make([]byte, 20+8)
	for i := range offending {
		offending[i] = byte(i)
	}
	dst := make([]byte, 8+len(offending))
	if err := icmp.BuildUnreachable(dst, offending, icmp.CodePortUnreachable); err != nil {
		t.Fatal(err)
	}
	frm, err := icmp.NewFrame(dst)
	if err != nil {
		t.Fatal(err)
	}
	if frm.Type() != icmp.TypeDestinationUnreachable {
		t.Fatalf("want unreachable type, got %v", frm.Type())
	}
	unreach := icmp.FrameDestinationUnreachable{Frame: frm}
	if unreach.Code() != icmp.CodePortUnreachable {
		t.Fatalf("want port unreachable code, got %v", unreach.Code())
	}
	if !bytes.Equal(unreach.Unreachable(), offending) {
		t.Fatal("offending packet bytes not preserved")
	}
	if frm.CRC() == 0 {
		t.Fatal("checksum not computed")
	}
}

func TestBuildUnreachableBadLength(t *testing.T) {
	dst := make([]byte, 4)
	if err := icmp.BuildUnreachable(dst, make([]byte, 28), icmp.CodeProtocolUnreachable); err == nil {
		t.Fatal("want error on undersized destination buffer")
	}
}
