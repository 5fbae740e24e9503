package sidump

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// EITType identifies which program window an EIT section describes.
type EITType string

const (
	EITTypePresent   EITType = "present"
	EITTypeFollowing EITType = "following"
	EITTypeSchedule  EITType = "schedule"
)

// classifyEIT returns the subtype of an EIT section. ok is false when the
// table id denotes an EIT for another transport stream, which is out of
// scope here.
func classifyEIT(tableID, sectionNumber uint8) (t EITType, ok bool) {
	switch {
	case tableID == TableIDEITPresentFollowing:
		ok = true
		if sectionNumber == 0 {
			t = EITTypePresent
		} else {
			t = EITTypeFollowing
		}
	case tableID >= TableIDEITScheduleStart && tableID < TableIDEITScheduleEnd:
		ok = true
		t = EITTypeSchedule
	}
	return
}

// Filter holds the allow-lists applied to EIT records. An empty list accepts
// everything for that dimension. TOT records are never filtered.
type Filter struct {
	EITTypes   []EITType
	EventIDs   []uint16
	ServiceIDs []uint16
}

func (f Filter) matchType(t EITType) bool {
	return len(f.EITTypes) == 0 || slices.Contains(f.EITTypes, t)
}

func (f Filter) matchServiceID(id uint16) bool {
	return len(f.ServiceIDs) == 0 || slices.Contains(f.ServiceIDs, id)
}

// matchEvents reports whether at least one event carries an allowed event
// id. The filter works at record granularity: one match keeps the whole
// record, and a record with no events at all can't match a configured list.
func (f Filter) matchEvents(es []*EITDataEvent) bool {
	if len(f.EventIDs) == 0 {
		return true
	}
	for _, e := range es {
		if slices.Contains(f.EventIDs, e.EventID) {
			return true
		}
	}
	return false
}

// ParseEITTypes parses a comma-separated EIT subtype allow-list.
// An empty input yields a nil list, meaning every subtype is accepted.
func ParseEITTypes(s string) (ts []EITType, err error) {
	if s == "" {
		return
	}
	for _, v := range strings.Split(s, ",") {
		switch t := EITType(strings.TrimSpace(v)); t {
		case EITTypePresent, EITTypeFollowing, EITTypeSchedule:
			ts = append(ts, t)
		default:
			err = fmt.Errorf("sidump: invalid EIT type %q", v)
			return
		}
	}
	return
}

// ParseIDList parses a comma-separated list of 16-bit identifiers.
// An empty input yields a nil list, meaning every id is accepted.
func ParseIDList(s string) (ids []uint16, err error) {
	if s == "" {
		return
	}
	for _, v := range strings.Split(s, ",") {
		var id uint64
		if id, err = strconv.ParseUint(strings.TrimSpace(v), 10, 16); err != nil {
			err = fmt.Errorf("sidump: invalid id %q: %w", v, err)
			return
		}
		ids = append(ids, uint16(id))
	}
	return
}
