package httpserver

import (
	"errors"
	"log/slog"
)

// defaultFIFOSize mirrors the original design's TCP_FIFO_SIZE: the number
// of newly-connected sockets that can be queued awaiting service before
// new connections are refused.
const defaultFIFOSize = 40

// maxRequestLineLen bounds a single getLine read, matching the original
// design's 1023-byte request buffer.
const maxRequestLineLen = 1023

// Config bundles a Server's listening port and document root.
type Config struct {
	Port     uint16
	DocRoot  string
	FIFOSize int
	Log      *slog.Logger
}

var errMissingDocRoot = errors.New("httpserver: DocRoot is required")

func (c *Config) ensure() error {
	if c.DocRoot == "" {
		return errMissingDocRoot
	}
	if c.Port == 0 {
		c.Port = 80
	}
	if c.FIFOSize == 0 {
		c.FIFOSize = defaultFIFOSize
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return nil
}
