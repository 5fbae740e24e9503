package sidump

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// Table ids carried on the watched PIDs.
// Page: 27 | Chapter: 5.1.3 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
const (
	TableIDEITStart            = uint8(0x4e) // first EIT table id
	TableIDEITEnd              = uint8(0x6f) // last EIT table id
	TableIDEITPresentFollowing = uint8(0x4e) // present/following, actual stream
	TableIDEITScheduleStart    = uint8(0x50) // schedule, actual stream
	TableIDEITScheduleEnd      = uint8(0x60) // first table id past the actual-stream schedule range
	TableIDTDT                 = uint8(0x70)
	TableIDTOT                 = uint8(0x73)
	tableIDStuffing            = uint8(0xff)
)

const sectionHeaderLength = 8

// sectionHeader represents the generic syntax header of a long-form section.
type sectionHeader struct {
	currentNext       bool
	lastSectionNumber uint8
	sectionLength     int
	sectionNumber     uint8
	tableID           uint8
	tableIDExtension  uint16
	versionNumber     uint8
}

func parseSectionHeader(i *astikit.BytesIterator) (h *sectionHeader, err error) {
	var bs []byte
	if bs, err = i.NextBytes(sectionHeaderLength); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	h = &sectionHeader{
		currentNext:       bs[5]&0x1 > 0,
		lastSectionNumber: bs[7],
		sectionLength:     int(bs[1]&0xf)<<8 | int(bs[2]),
		sectionNumber:     bs[6],
		tableID:           bs[0],
		tableIDExtension:  uint16(bs[3])<<8 | uint16(bs[4]),
		versionNumber:     bs[5] >> 1 & 0x1f,
	}
	return
}

// parseTable decodes one complete section into a tagged table.
// Sections that carry neither an EIT nor a TOT yield nil: the TDT notably
// shares the TOT PID and is skipped, and so is anything with an unexpected
// table id.
func parseTable(pid uint16, s []byte) (t *Table, err error) {
	switch pid {
	case PIDEIT:
		if s[0] < TableIDEITStart || s[0] > TableIDEITEnd {
			return
		}
		var d *EITData
		if d, err = parseEITSection(s); err != nil {
			err = fmt.Errorf("sidump: parsing EIT section failed: %w", err)
			return
		}
		if d != nil {
			t = &Table{EIT: d, PID: pid}
		}
	case PIDTOT:
		if s[0] != TableIDTOT {
			return
		}
		var d *TOTData
		if d, err = parseTOTSection(s); err != nil {
			err = fmt.Errorf("sidump: parsing TOT section failed: %w", err)
			return
		}
		if d != nil {
			t = &Table{PID: pid, TOT: d}
		}
	}
	return
}
