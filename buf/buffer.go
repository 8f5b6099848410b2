// Package buf implements the fixed-capacity packet buffer shared by every
// layer of the stack: a contiguous byte region with a movable head pointer
// that lets header construction and stripping avoid copies in the common
// case, at the cost of an explicit compaction signal when the head runs out
// of room to move further.
package buf

import "errors"

// MaxLen is the default capacity used for stack-owned scratch buffers
// (ingress/egress scratch, per-connection rx/tx buffers).
const MaxLen = 1600

var (
	// ErrNoHeaderRoom is returned by AddHeader when there is not enough
	// free space before the current data offset to push k more bytes.
	ErrNoHeaderRoom = errors.New("buf: no room to add header")
	// ErrNoPadRoom is returned by AddPadding when there is not enough
	// free space after the current data to add k bytes of padding, and by
	// Load when src is larger than the store.
	ErrNoPadRoom = errors.New("buf: no room to add padding")
	// ErrHeaderUnderflow is returned by RemoveHeader/RemovePadding when k
	// exceeds the buffer's current length.
	ErrHeaderUnderflow = errors.New("buf: remove exceeds length")
)

// Buffer is a fixed-capacity byte region with a movable data head, modelled
// on the header push/pop pattern every layer of the stack uses while
// encapsulating and decapsulating packets: IP/TCP/UDP/ICMP each add or
// remove their own header in place without copying the payload that
// follows it, except when the head pointer runs out of leading room, at
// which point the caller is told to compact.
type Buffer struct {
	store []byte
	data  int
	len   int
}

// NewBuffer allocates a Buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{store: make([]byte, capacity)}
}

// Init resets the buffer to hold n bytes of payload, positioning the data
// head at the middle of the store so that later AddHeader calls have room
// in front of it; for a [MaxLen] buffer that is 800 bytes, well beyond the
// deepest supported encapsulation (Ethernet+IP+TCP). If n bytes do not fit
// after the middle, the head is moved back just far enough to hold them.
func (b *Buffer) Init(n int) {
	off := len(b.store) / 2
	if off+n > len(b.store) {
		off = len(b.store) - n
		if off < 0 {
			off = 0
		}
	}
	b.data = off
	b.len = n
}

// Reset empties the buffer, keeping its backing store.
func (b *Buffer) Reset() { b.data = 0; b.len = 0 }

// Load copies src to the front of the store and sets the buffer to hold
// exactly those bytes, with no leading headroom. This is how an inbound
// frame enters the buffer: unlike Init, there is no encapsulation left to
// strip before it, only headers already present to remove as each layer is
// parsed off.
func (b *Buffer) Load(src []byte) error {
	if len(src) > len(b.store) {
		return ErrNoPadRoom
	}
	b.data = 0
	b.len = copy(b.store, src)
	return nil
}

// Cap returns the buffer's total storage capacity.
func (b *Buffer) Cap() int { return len(b.store) }

// Len returns the number of live bytes currently held.
func (b *Buffer) Len() int { return b.len }

// Bytes returns the live portion of the buffer. The returned slice aliases
// the buffer's storage and is invalidated by the next header/padding call.
func (b *Buffer) Bytes() []byte { return b.store[b.data : b.data+b.len] }

// AddHeader grows the buffer by k bytes at the front, for a caller about to
// write a header into the newly exposed space. Returns ErrNoHeaderRoom if
// there isn't k bytes of room before the current data offset.
func (b *Buffer) AddHeader(k int) error {
	if k < 0 {
		panic("buf: negative header size")
	}
	if k > b.data {
		return ErrNoHeaderRoom
	}
	b.data -= k
	b.len += k
	return nil
}

// RemoveHeader shrinks the buffer by k bytes at the front, for a caller that
// has just finished parsing and stripping a header. It returns shiftNeeded
// true when the data head has advanced far enough that the caller should
// compact the buffer back toward the start of the store (via Compact) to
// keep headroom available for a later AddHeader.
func (b *Buffer) RemoveHeader(k int) (shiftNeeded bool, err error) {
	if k < 0 {
		panic("buf: negative header size")
	}
	if k > b.len {
		return false, ErrHeaderUnderflow
	}
	b.data += k
	b.len -= k
	shiftNeeded = b.data > len(b.store)/2
	return shiftNeeded, nil
}

// AddPadding grows the buffer by k bytes at the tail, zeroing the newly
// exposed bytes. Returns ErrNoPadRoom if there isn't room after the
// current data.
func (b *Buffer) AddPadding(k int) error {
	if k < 0 {
		panic("buf: negative padding size")
	}
	end := b.data + b.len
	if end+k > len(b.store) {
		return ErrNoPadRoom
	}
	for i := end; i < end+k; i++ {
		b.store[i] = 0
	}
	b.len += k
	return nil
}

// RemovePadding shrinks the buffer by k bytes at the tail.
func (b *Buffer) RemovePadding(k int) error {
	if k < 0 {
		panic("buf: negative padding size")
	}
	if k > b.len {
		return ErrHeaderUnderflow
	}
	b.len -= k
	return nil
}

// Compact moves the live bytes back to the start of the store, maximizing
// headroom for subsequent AddHeader calls. Call this when RemoveHeader
// signals shiftNeeded.
func (b *Buffer) Compact() {
	if b.data == 0 {
		return
	}
	copy(b.store, b.Bytes())
	b.data = 0
}

// Prepend is a convenience wrapper that adds k bytes of header room and
// returns the writable slice for the caller to fill in.
func (b *Buffer) Prepend(k int) ([]byte, error) {
	if err := b.AddHeader(k); err != nil {
		return nil, err
	}
	return b.store[b.data : b.data+k], nil
}
