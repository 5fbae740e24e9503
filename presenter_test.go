package sidump

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func presentedEIT(t *testing.T, f Filter, d *EITData) string {
	buf := &bytes.Buffer{}
	assert.NoError(t, NewPresenter(buf, f).HandleTable(&Table{EIT: d, PID: PIDEIT}))
	return buf.String()
}

func testEIT(tableID, sectionNumber uint8, serviceID uint16, es []*EITDataEvent) *EITData {
	if es == nil {
		es = []*EITDataEvent{}
	}
	return &EITData{
		Events:        es,
		SectionNumber: sectionNumber,
		ServiceID:     serviceID,
		TableID:       tableID,
	}
}

func TestPresenterSkipsOtherStreamEITs(t *testing.T) {
	for _, tableID := range []uint8{0x4d, 0x4f, 0x60, 0x6f, 0x72} {
		out := presentedEIT(t, Filter{}, testEIT(tableID, 0, 1, nil))
		assert.Empty(t, out, "table id 0x%x", tableID)
	}
}

func TestPresenterSkipsMissingEventList(t *testing.T) {
	out := presentedEIT(t, Filter{}, &EITData{ServiceID: 1, TableID: 0x4e})
	assert.Empty(t, out)
}

func TestPresenterClassifiesEITs(t *testing.T) {
	assert.Contains(t, presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, nil)), "EIT present service_id=1")
	assert.Contains(t, presentedEIT(t, Filter{}, testEIT(0x4e, 1, 1, nil)), "EIT following service_id=1")
	assert.Contains(t, presentedEIT(t, Filter{}, testEIT(0x51, 0, 1, nil)), "EIT schedule service_id=1")
}

func TestPresenterEITTypeFilter(t *testing.T) {
	f := Filter{EITTypes: []EITType{EITTypePresent}}
	assert.Contains(t, presentedEIT(t, f, testEIT(0x4e, 0, 1, nil)), "EIT present")
	assert.Empty(t, presentedEIT(t, f, testEIT(0x4e, 1, 1, nil)))
}

func TestPresenterServiceIDFilter(t *testing.T) {
	f := Filter{ServiceIDs: []uint16{1024, 2048}}
	assert.Empty(t, presentedEIT(t, f, testEIT(0x4e, 0, 4096, nil)))
	assert.Contains(t, presentedEIT(t, f, testEIT(0x4e, 0, 1024, nil)), "EIT present service_id=1024")
}

func TestPresenterEventIDFilter(t *testing.T) {
	f := Filter{EventIDs: []uint16{100}}

	// No event carries an allowed id
	assert.Empty(t, presentedEIT(t, f, testEIT(0x4e, 0, 1, []*EITDataEvent{{EventID: 200}})))

	// An allow-list with an empty event list rejects the record
	assert.Empty(t, presentedEIT(t, f, testEIT(0x4e, 0, 1, nil)))

	// One match keeps the whole record, non-matching events included
	out := presentedEIT(t, f, testEIT(0x4e, 0, 1, []*EITDataEvent{{EventID: 200}, {EventID: 100}}))
	assert.Equal(t, 2, strings.Count(out, "EventID:"))
}

func TestPresenterEventFields(t *testing.T) {
	out := presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, []*EITDataEvent{{
		Duration:  EventDuration{Duration: dvbDuration},
		EventID:   100,
		StartTime: EventTime{Time: dvbTime},
	}}))
	assert.Contains(t, out, "1993-10-13T12:45:00+09:00")
	assert.Contains(t, out, "5400")

	out = presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, []*EITDataEvent{{
		Duration:  EventDuration{Unspecified: true},
		EventID:   100,
		StartTime: EventTime{Unspecified: true},
	}}))
	assert.Equal(t, 2, strings.Count(out, "+Inf"))
}

func TestPresenterSectionSyntaxFields(t *testing.T) {
	out := presentedEIT(t, Filter{}, &EITData{
		Events:                   []*EITDataEvent{},
		IsCurrent:                true,
		LastSectionNumber:        7,
		LastTableID:              0x50,
		SegmentLastSectionNumber: 3,
		ServiceID:                1,
		TableID:                  0x4e,
	})
	assert.Contains(t, out, "IsCurrent: (bool) true")
	assert.Contains(t, out, "LastSectionNumber: (uint8) 7")
	assert.Contains(t, out, "LastTableID: (uint8) 80")
	assert.Contains(t, out, "SegmentLastSectionNumber: (uint8) 3")
}

type logLines struct {
	bs bytes.Buffer
}

func (l *logLines) Fatal(v ...interface{})                 { fmt.Fprintln(&l.bs, v...) }
func (l *logLines) Fatalf(format string, v ...interface{}) { fmt.Fprintf(&l.bs, format+"\n", v...) }
func (l *logLines) Print(v ...interface{})                 { fmt.Fprintln(&l.bs, v...) }
func (l *logLines) Printf(format string, v ...interface{}) { fmt.Fprintf(&l.bs, format+"\n", v...) }

func TestPresenterLogsUnknownDescriptorTags(t *testing.T) {
	l := &logLines{}
	SetLogger(l)
	defer SetLogger(nil)
	out := presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, []*EITDataEvent{{
		Descriptors: []*Descriptor{{Length: 0x1, Raw: []byte{0x7}, Tag: 0xc1}},
		EventID:     100,
	}}))
	assert.NotEmpty(t, out)
	assert.Contains(t, l.bs.String(), "descriptor tag 0xc1")
}

func TestPresenterShortEventDescriptor(t *testing.T) {
	// ARIB STD-B24 coded event name
	name := []byte{27, 36, 59, 15, 122, 107, 27, 36, 57, 15, 50, 62, 76, 76, 27, 124, 233, 164, 192, 249, 234, 208,
		164, 185, 33, 33, 66, 104, 14, 49, 15, 79, 67, 251, 50, 72, 66, 50, 14, 33, 15, 55, 64, 76, 115, 14, 33, 15,
		48, 45, 75, 98, 27, 125, 181, 181, 228, 175, 14, 33, 252, 27, 36, 59, 15, 122, 88, 122, 86}
	out := presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, []*EITDataEvent{{
		Descriptors: []*Descriptor{{
			Length: 0x4d,
			Raw:    []byte{0x01},
			ShortEvent: &DescriptorShortEvent{
				EventName: name,
				Language:  []byte{0x4a, 0x50, 0x4e},
			},
			Tag: DescriptorTagShortEvent,
		}},
		EventID: 100,
	}}))
	assert.Contains(t, out, "JPN")
	assert.Contains(t, out, "仮面ライダー")

	// The raw backing bytes are dropped from the display copy
	assert.NotContains(t, out, "Raw")
}

func TestPresenterExtendedEventDescriptor(t *testing.T) {
	out := presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, []*EITDataEvent{{
		Descriptors: []*Descriptor{{
			ExtendedEvent: &DescriptorExtendedEvent{
				ISO639LanguageCode:   []byte("jpn"),
				Items:                []*DescriptorExtendedEventItem{{}},
				LastDescriptorNumber: 1,
			},
			Tag: DescriptorTagExtendedEvent,
		}},
		EventID: 100,
	}}))
	assert.Contains(t, out, "jpn")
	assert.Contains(t, out, "Items")
}

func TestPresenterTOTUnfiltered(t *testing.T) {
	// TOT records ignore every EIT allow-list
	f := Filter{
		EITTypes:   []EITType{EITTypePresent},
		EventIDs:   []uint16{100},
		ServiceIDs: []uint16{1024},
	}
	buf := &bytes.Buffer{}
	assert.NoError(t, NewPresenter(buf, f).HandleTable(&Table{PID: PIDTOT, TOT: tot}))
	assert.Contains(t, buf.String(), "TOT\n")
	assert.Contains(t, buf.String(), "1993-10-13T12:45:00+09:00")
}

func TestPresenterBlockLayout(t *testing.T) {
	out := presentedEIT(t, Filter{}, testEIT(0x4e, 0, 1, nil))
	lines := strings.Split(out, "\n")
	assert.Equal(t, "EIT present service_id=1", lines[0])
	assert.Equal(t, presenterRule, lines[1])
	assert.Equal(t, presenterRule, lines[len(lines)-2])
}
