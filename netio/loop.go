package netio

import "sync"

// Loop is an in-memory back-to-back Driver pair: frames sent on one end
// arrive on the other's Recv queue. Useful for integration tests that
// exercise a full stack-to-stack exchange without a real NIC.
type Loop struct {
	mu    sync.Mutex
	inbox [][]byte
	peer  *Loop
}

// NewLoopPair returns two Loop drivers wired to each other.
func NewLoopPair() (a, b *Loop) {
	a = &Loop{}
	b = &Loop{}
	a.peer = b
	b.peer = a
	return a, b
}

// Send copies frame into the peer's inbox.
func (l *Loop) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	l.peer.mu.Lock()
	l.peer.inbox = append(l.peer.inbox, cp)
	l.peer.mu.Unlock()
	return nil
}

// Recv pops the oldest queued frame into into, returning 0 if none is queued.
func (l *Loop) Recv(into []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbox) == 0 {
		return 0, nil
	}
	frame := l.inbox[0]
	l.inbox = l.inbox[1:]
	return copy(into, frame), nil
}
