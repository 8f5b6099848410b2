package netstack

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hitsznet/netlab/netio"
)

// Config bundles the interface identity, timing and collaborators a
// [Stack] is constructed with.
type Config struct {
	LocalIP  [4]byte
	LocalMAC [6]byte

	// MTU is the largest IP datagram sent unfragmented; defaults to 1500.
	MTU int
	// DefaultTTL is stamped on every outgoing IP datagram; defaults to 64.
	DefaultTTL uint8
	// ARPTimeout is how long a resolved ARP table entry stays valid.
	ARPTimeout time.Duration
	// ARPMinInterval is the minimum spacing between ARP requests for the
	// same unresolved destination.
	ARPMinInterval time.Duration

	Clock  clockwork.Clock
	Driver netio.Driver
	Log    *slog.Logger
}

var (
	errMissingLocalIP  = errors.New("netstack: LocalIP is required")
	errMissingLocalMAC = errors.New("netstack: LocalMAC is required")
	errMissingDriver   = errors.New("netstack: Driver is required")
)

func (c *Config) ensure() error {
	if c.LocalIP == ([4]byte{}) {
		return errMissingLocalIP
	}
	if c.LocalMAC == ([6]byte{}) {
		return errMissingLocalMAC
	}
	if c.Driver == nil {
		return errMissingDriver
	}
	if c.MTU == 0 {
		c.MTU = 1500
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = 64
	}
	if c.ARPTimeout == 0 {
		c.ARPTimeout = 10 * time.Minute
	}
	if c.ARPMinInterval == 0 {
		c.ARPMinInterval = time.Second
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return nil
}
