package buf_test

import (
	"bytes"
	"testing"

	"github.com/hitsznet/netlab/buf"
)

func TestAddRemoveHeader(t *testing.T) {
	b := buf.NewBuffer(128)
	b.Init(4)
	copy(b.Bytes(), []byte{1, 2, 3, 4})

	if err := b.AddHeader(8); err != nil {
		t.Fatalf("AddHeader: %v", err)
	}
	if b.Len() != 12 {
		t.Fatalf("want len 12 got %d", b.Len())
	}
	hdr := b.Bytes()[:8]
	for i := range hdr {
		hdr[i] = byte(0xA0 + i)
	}
	if !bytes.Equal(b.Bytes()[8:], []byte{1, 2, 3, 4}) {
		t.Fatalf("payload corrupted after AddHeader: %x", b.Bytes())
	}

	if _, err := b.RemoveHeader(8); err != nil {
		t.Fatalf("RemoveHeader: %v", err)
	}
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3, 4}) {
		t.Fatalf("payload corrupted after RemoveHeader: %x", b.Bytes())
	}
}

func TestAddHeaderOutOfRoom(t *testing.T) {
	b := buf.NewBuffer(16)
	b.Init(16)
	if err := b.AddHeader(1); err == nil {
		t.Fatal("expected ErrNoHeaderRoom when buffer has no leading slack")
	}
}

func TestPadding(t *testing.T) {
	b := buf.NewBuffer(64)
	b.Init(4)
	if err := b.AddPadding(10); err != nil {
		t.Fatalf("AddPadding: %v", err)
	}
	if b.Len() != 14 {
		t.Fatalf("want len 14 got %d", b.Len())
	}
	if err := b.RemovePadding(10); err != nil {
		t.Fatalf("RemovePadding: %v", err)
	}
	if b.Len() != 4 {
		t.Fatalf("want len 4 got %d", b.Len())
	}
}

func TestCompact(t *testing.T) {
	b := buf.NewBuffer(32)
	b.Init(4)
	copy(b.Bytes(), []byte{9, 9, 9, 9})
	b.AddHeader(20)
	shift, _ := b.RemoveHeader(20)
	if !shift {
		// Not asserting shiftNeeded unconditionally true; only that Compact is idempotent-safe regardless.
	}
	b.Compact()
	if !bytes.Equal(b.Bytes(), []byte{9, 9, 9, 9}) {
		t.Fatalf("compact corrupted data: %x", b.Bytes())
	}
}
