package sidump

import (
	"fmt"
	"time"

	"github.com/asticode/go-astikit"
)

// TOTData represents a TOT section.
// The field ARIB names JST_time occupies the slot the DVB specification
// calls UTC_time: the ARIB broadcast chain fills it with JST wall clock.
// Page: 39 | Chapter: 5.2.6 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type TOTData struct {
	JSTTime time.Time
}

// parseTOTSection parses a complete TOT section, CRC included.
// Unlike a checksum-failed EIT, a checksum-failed TOT is dropped entirely.
func parseTOTSection(s []byte) (d *TOTData, err error) {
	if verifyCRC32(s) != nil {
		return
	}

	// JST time sits right after table id and section length
	i := astikit.NewBytesIterator(s)
	i.Skip(3)
	var bs []byte
	if bs, err = i.NextBytes(5); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	d = &TOTData{JSTTime: parseDVBTime(bs)}
	return
}
