package arp

import "time"

// entry binds an IPv4 address to a hardware address, aged by the clock
// source supplied to the owning [Engine].
type entry struct {
	mac      [6]byte
	lastSeen time.Time
}

// Table maps resolved IPv4 addresses to Ethernet hardware addresses. The
// zero value is ready to use. A Table is not safe for concurrent use; the
// stack serializes all access through its single poll loop.
type Table struct {
	m map[[4]byte]entry
}

// Lookup returns the hardware address cached for ip, if any and not yet
// aged out as of now.
func (t *Table) Lookup(ip [4]byte, now time.Time, timeout time.Duration) (mac [6]byte, ok bool) {
	if t.m == nil {
		return mac, false
	}
	e, ok := t.m[ip]
	if !ok {
		return mac, false
	}
	if now.Sub(e.lastSeen) > timeout {
		delete(t.m, ip)
		return mac, false
	}
	return e.mac, true
}

// Set records or refreshes the binding ip -> mac.
func (t *Table) Set(ip [4]byte, mac [6]byte, now time.Time) {
	if t.m == nil {
		t.m = make(map[[4]byte]entry, 8)
	}
	t.m[ip] = entry{mac: mac, lastSeen: now}
}

// Len reports the number of (possibly stale) entries in the table.
func (t *Table) Len() int { return len(t.m) }

// pendingEntry is a single outbound packet queued while its destination's
// hardware address is being resolved.
type pendingEntry struct {
	pkt    []byte
	sentAt time.Time
	dstIP  [4]byte
}

// Pending tracks at most one outbound packet per unresolved destination
// IPv4 address, rate-limiting ARP request retransmission: a second send
// attempt to the same unresolved IP while one is already queued is dropped
// rather than re-queued, exactly as the original design drops the bursty
// duplicate instead of replacing or buffering it.
type Pending struct {
	m map[[4]byte]pendingEntry
}

// Has reports whether dst already has a queued packet.
func (p *Pending) Has(dst [4]byte) bool {
	_, ok := p.m[dst]
	return ok
}

// Store queues pkt (copied) for dst. The caller must have already checked
// Has(dst) is false.
func (p *Pending) Store(dst [4]byte, pkt []byte, now time.Time) {
	if p.m == nil {
		p.m = make(map[[4]byte]pendingEntry, 4)
	}
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	p.m[dst] = pendingEntry{pkt: cp, sentAt: now, dstIP: dst}
}

// Take removes and returns the packet queued for sender, if any.
func (p *Pending) Take(sender [4]byte) (pkt []byte, ok bool) {
	e, ok := p.m[sender]
	if !ok {
		return nil, false
	}
	delete(p.m, sender)
	return e.pkt, true
}

// EvictStale removes entries older than minInterval, allowing a fresh ARP
// request to be sent for that destination on the next Out call.
func (p *Pending) EvictStale(now time.Time, minInterval time.Duration) {
	for ip, e := range p.m {
		if now.Sub(e.sentAt) > minInterval {
			delete(p.m, ip)
		}
	}
}
