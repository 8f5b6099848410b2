package tcp

// connKey uniquely identifies a connection by remote endpoint and local
// listening port; a listener accepts connections from any remote peer, so
// local_port alone is the lookup key on the listener side.
type connKey struct {
	remoteIP   [4]byte
	remotePort uint16
	localPort  uint16
}

// Table holds the set of registered listeners and live connections.
type Table struct {
	listeners map[uint16]Handler
	conns     map[connKey]*Conn
}

func newTable() *Table {
	return &Table{
		listeners: make(map[uint16]Handler),
		conns:     make(map[connKey]*Conn),
	}
}

// Listener reports the handler registered for port, if any.
func (t *Table) Listener(port uint16) (Handler, bool) {
	h, ok := t.listeners[port]
	return h, ok
}

// Lookup finds an existing connection by its key.
func (t *Table) Lookup(k connKey) (*Conn, bool) {
	c, ok := t.conns[k]
	return c, ok
}

// NumConns reports the number of live connections, for tests and metrics.
func (t *Table) NumConns() int { return len(t.conns) }
