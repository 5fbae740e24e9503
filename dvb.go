package sidump

import (
	"bytes"
	"time"
)

// ARIB streams carry their SI times as JST wall clock (UTC+9, no daylight
// saving).
var timeZoneJST = time.FixedZone("JST", 9*60*60)

// All-ones time fields mean "value intentionally unspecified".
// Page: 23 | Chapter: 5.2.4 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
var (
	unspecifiedTimeBytes     = []byte{0xff, 0xff, 0xff, 0xff, 0xff}
	unspecifiedDurationBytes = []byte{0xff, 0xff, 0xff}
)

// EventTime represents a 40-bit coded start time that may be the "undefined"
// all-ones pattern (e.g. for an event in a NVOD reference service).
type EventTime struct {
	Time        time.Time
	Unspecified bool
}

// EventDuration represents a 24-bit BCD coded duration that may be the
// "undefined" all-ones pattern.
type EventDuration struct {
	Duration    time.Duration
	Unspecified bool
}

// parseEventTime parses a 5-byte coded start time, never feeding the
// unspecified pattern to the time decoder.
func parseEventTime(bs []byte) EventTime {
	if bytes.Equal(bs, unspecifiedTimeBytes) {
		return EventTime{Unspecified: true}
	}
	return EventTime{Time: parseDVBTime(bs)}
}

// parseEventDuration parses a 3-byte coded duration, never feeding the
// unspecified pattern to the duration decoder.
func parseEventDuration(bs []byte) EventDuration {
	if bytes.Equal(bs, unspecifiedDurationBytes) {
		return EventDuration{Unspecified: true}
	}
	return EventDuration{Duration: parseDVBDuration(bs)}
}

// parseDVBTime parses a DVB time
// This field is coded as 16 bits giving the 16 LSBs of MJD followed by 24
// bits coded as 6 digits in 4-bit Binary Coded Decimal (BCD).
// Page: 160 | Annex C | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
func parseDVBTime(bs []byte) time.Time {
	mjd := uint16(bs[0])<<8 | uint16(bs[1])
	yt := int((float64(mjd) - 15078.2) / 365.25)
	mt := int((float64(mjd) - 14956.1 - float64(int(float64(yt)*365.25))) / 30.6001)
	d := int(mjd) - 14956 - int(float64(yt)*365.25) - int(float64(mt)*30.6001)
	var k int
	if mt == 14 || mt == 15 {
		k = 1
	}
	y := 1900 + yt + k
	m := mt - 1 - k*12
	return time.Date(y, time.Month(m), d, bcdDigits(bs[2]), bcdDigits(bs[3]), bcdDigits(bs[4]), 0, timeZoneJST)
}

// parseDVBDuration parses a 24 bit field containing a duration in hours,
// minutes, seconds. format: 6 digits, 4-bit BCD = 24 bit.
func parseDVBDuration(bs []byte) time.Duration {
	return time.Duration(bcdDigits(bs[0]))*time.Hour +
		time.Duration(bcdDigits(bs[1]))*time.Minute +
		time.Duration(bcdDigits(bs[2]))*time.Second
}

// bcdDigits parses a 2-digit BCD byte.
func bcdDigits(i byte) int {
	return int(i>>4)*10 + int(i&0xf)
}
