package sidump

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// EITData represents an EIT section
// Page: 36 | Chapter: 5.2.4 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type EITData struct {
	IsCurrent                bool
	LastSectionNumber        uint8
	LastTableID              uint8
	OriginalNetworkID        uint16
	SectionNumber            uint8
	SegmentLastSectionNumber uint8
	ServiceID                uint16
	TableID                  uint8
	TransportStreamID        uint16
	VersionNumber            uint8

	// Events is nil when the section failed its CRC check: the header is
	// surfaced so the record can be identified, but its content is not to be
	// trusted. A section that simply carries no events has an empty,
	// non-nil slice.
	Events []*EITDataEvent
}

// EITDataEvent represents an EIT event.
type EITDataEvent struct {
	Duration       EventDuration
	EventID        uint16
	HasFreeCSAMode bool
	RunningStatus  uint8
	StartTime      EventTime

	Descriptors []*Descriptor
}

// parseEITSection parses a complete EIT section, CRC included.
func parseEITSection(s []byte) (d *EITData, err error) {
	if len(s) < sectionHeaderLength {
		return
	}

	// Header
	i := astikit.NewBytesIterator(s)
	var h *sectionHeader
	if h, err = parseSectionHeader(i); err != nil {
		err = fmt.Errorf("sidump: parsing section header failed: %w", err)
		return
	}
	d = &EITData{
		IsCurrent:         h.currentNext,
		LastSectionNumber: h.lastSectionNumber,
		SectionNumber:     h.sectionNumber,
		ServiceID:         h.tableIDExtension,
		TableID:           h.tableID,
		VersionNumber:     h.versionNumber,
	}

	// A checksum mismatch surfaces as a table with no event list
	if verifyCRC32(s) != nil {
		return
	}

	// Transport stream ID
	var bs []byte
	if bs, err = i.NextBytes(2); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	d.TransportStreamID = uint16(bs[0])<<8 | uint16(bs[1])

	// Original network ID
	if bs, err = i.NextBytes(2); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	d.OriginalNetworkID = uint16(bs[0])<<8 | uint16(bs[1])

	// Segment last section number
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	d.SegmentLastSectionNumber = b

	// Last table id
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	d.LastTableID = b

	// Loop until the CRC is reached
	d.Events = []*EITDataEvent{}
	offsetSectionsEnd := len(s) - 4
	for i.Offset() < offsetSectionsEnd {
		var e *EITDataEvent
		if e, err = parseEITEvent(i); err != nil {
			err = fmt.Errorf("sidump: parsing EIT event failed: %w", err)
			return
		}
		d.Events = append(d.Events, e)
	}
	return
}

// parseEITEvent parses one event of an EIT section event loop.
func parseEITEvent(i *astikit.BytesIterator) (e *EITDataEvent, err error) {
	// Init
	e = &EITDataEvent{}

	// Event ID
	var bs []byte
	if bs, err = i.NextBytes(2); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	e.EventID = uint16(bs[0])<<8 | uint16(bs[1])

	// Start time
	if bs, err = i.NextBytes(5); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	e.StartTime = parseEventTime(bs)

	// Duration
	if bs, err = i.NextBytes(3); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	e.Duration = parseEventDuration(bs)

	// Running status
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	e.RunningStatus = b >> 5

	// Free CA mode
	e.HasFreeCSAMode = b&0x10 > 0

	// We need to rewind since the current byte is used by the descriptor loop length
	i.Skip(-1)

	// Descriptors
	if e.Descriptors, err = parseDescriptors(i); err != nil {
		err = fmt.Errorf("sidump: parsing descriptors failed: %w", err)
		return
	}
	return
}
