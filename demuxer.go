package sidump

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astits"
)

// ARIB SI PIDs watched by the demuxer.
const (
	PIDEIT = uint16(0x12) // Event Information Table
	PIDTOT = uint16(0x14) // Time Offset Table (the TDT is carried on the same PID)
)

// ErrNoMoreTables is returned by NextTable once the input stream is exhausted.
var ErrNoMoreTables = errors.New("sidump: no more tables")

// Table represents one decoded service-information table, tagged with the
// PID it was carried on. Exactly one of EIT and TOT is set.
type Table struct {
	EIT *EITData
	PID uint16
	TOT *TOTData
}

// Demuxer extracts EIT and TOT tables from a transport stream.
// Packet-level demultiplexing (sync byte framing, header and adaptation
// field parsing) is delegated to astits; the Demuxer itself reassembles the
// section payloads carried on the SI PIDs and decodes them.
type Demuxer struct {
	buffers       map[uint16]*sectionBuffer
	dmx           *astits.Demuxer
	optPacketSize int
	queue         []*Table
}

// sectionBuffer accumulates the section bytes of one PID across packets.
type sectionBuffer struct {
	bs      []byte
	started bool
}

func (b *sectionBuffer) reset() {
	b.bs = b.bs[:0]
	b.started = false
}

// NewDemuxer creates a new demuxer reading transport packets from r.
func NewDemuxer(ctx context.Context, r io.Reader, opts ...func(*Demuxer)) (dmx *Demuxer) {
	// Init
	dmx = &Demuxer{
		buffers: map[uint16]*sectionBuffer{
			PIDEIT: {},
			PIDTOT: {},
		},
	}

	// Apply options
	for _, opt := range opts {
		opt(dmx)
	}

	// Create the packet-level demuxer
	var astitsOpts []func(*astits.Demuxer)
	if dmx.optPacketSize > 0 {
		astitsOpts = append(astitsOpts, astits.DemuxerOptPacketSize(dmx.optPacketSize))
	}
	dmx.dmx = astits.NewDemuxer(ctx, r, astitsOpts...)
	return
}

// DemuxerOptPacketSize returns the option to set the transport packet size,
// skipping the automatic packet size detection.
func DemuxerOptPacketSize(packetSize int) func(*Demuxer) {
	return func(d *Demuxer) {
		d.optPacketSize = packetSize
	}
}

// NextTable retrieves the next decoded EIT or TOT table.
// It returns ErrNoMoreTables once the input is exhausted.
func (dmx *Demuxer) NextTable() (t *Table, err error) {
	for {
		// Dispatch tables decoded during a previous iteration first
		if len(dmx.queue) > 0 {
			t = dmx.queue[0]
			dmx.queue = dmx.queue[1:]
			return
		}

		// Get next packet
		var p *astits.Packet
		if p, err = dmx.dmx.NextPacket(); err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				err = ErrNoMoreTables
				return
			}
			err = fmt.Errorf("sidump: fetching next packet failed: %w", err)
			return
		}

		// Only the SI PIDs matter here
		if !p.Header.HasPayload {
			continue
		}
		b, ok := dmx.buffers[p.Header.PID]
		if !ok {
			continue
		}

		// Feed the payload to the section buffer
		if err = dmx.feed(p.Header.PID, b, p); err != nil {
			err = fmt.Errorf("sidump: processing packet payload failed: %w", err)
			return
		}
	}
}

// feed accumulates a packet payload into the PID's section buffer.
func (dmx *Demuxer) feed(pid uint16, b *sectionBuffer, p *astits.Packet) (err error) {
	payload := p.Payload
	if p.Header.PayloadUnitStartIndicator {
		if len(payload) == 0 {
			return
		}

		// The pointer field gives the offset of the new section within the
		// payload; the bytes before it belong to the previous section.
		pointer := int(payload[0])
		if 1+pointer > len(payload) {
			b.reset()
			return
		}
		if b.started && pointer > 0 {
			b.bs = append(b.bs, payload[1:1+pointer]...)
			if err = dmx.drain(pid, b); err != nil {
				return
			}
		}
		b.bs = append(b.bs[:0], payload[1+pointer:]...)
		b.started = true
	} else {
		// Without a seen payload unit start there is no way to frame the
		// section, so leading continuation packets are dropped.
		if !b.started {
			return
		}
		b.bs = append(b.bs, payload...)
	}
	return dmx.drain(pid, b)
}

// drain extracts and decodes every complete section sitting at the front of
// the buffer, queueing the resulting tables.
func (dmx *Demuxer) drain(pid uint16, b *sectionBuffer) (err error) {
	for len(b.bs) >= 3 {
		// Stuffing means the rest of the payload unit carries no section
		if b.bs[0] == tableIDStuffing {
			b.bs = b.bs[:0]
			return
		}

		// Wait for the complete section
		length := 3 + (int(b.bs[1]&0xf)<<8 | int(b.bs[2]))
		if len(b.bs) < length {
			return
		}
		s := make([]byte, length)
		copy(s, b.bs[:length])
		b.bs = b.bs[length:]

		// Decode
		var t *Table
		if t, err = parseTable(pid, s); err != nil {
			err = fmt.Errorf("sidump: parsing section failed: %w", err)
			return
		}
		if t != nil {
			dmx.queue = append(dmx.queue, t)
		}
	}
	return
}
