package netio

import (
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PCAPWriter wraps a [Driver], writing every frame that crosses Send or Recv
// to a pcap capture file as a side effect. Useful for debugging a running
// stack without a separate tap.
type PCAPWriter struct {
	Driver
	w   *pcapgo.Writer
	now func() time.Time
}

// NewPCAPWriter wraps driver, writing an Ethernet-linktype pcap stream to w.
// now supplies packet timestamps; pass time.Now in production.
func NewPCAPWriter(driver Driver, w io.Writer, now func() time.Time) (*PCAPWriter, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	return &PCAPWriter{Driver: driver, w: pw, now: now}, nil
}

func (p *PCAPWriter) Send(frame []byte) error {
	p.capture(frame)
	return p.Driver.Send(frame)
}

func (p *PCAPWriter) Recv(into []byte) (int, error) {
	n, err := p.Driver.Recv(into)
	if err == nil && n > 0 {
		p.capture(into[:n])
	}
	return n, err
}

func (p *PCAPWriter) capture(frame []byte) {
	ci := gopacket.CaptureInfo{
		Timestamp:     p.now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	// Capture errors are not fatal to the stack; a failing capture sink
	// should not stop packet processing.
	_ = p.w.WritePacket(ci, frame)
}
