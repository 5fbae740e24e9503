package sidump

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/zlm2012/wildwrap/b24"
)

const presenterRule = "--------------------------------------------------------------------------------"

// EITRecord is the display-ready copy of an accepted EIT section: raw byte
// fields are replaced with their decoded rendition.
type EITRecord struct {
	Events                   []EITEventRecord
	IsCurrent                bool
	LastSectionNumber        uint8
	LastTableID              uint8
	OriginalNetworkID        uint16
	SectionNumber            uint8
	SegmentLastSectionNumber uint8
	ServiceID                uint16
	TableID                  uint8
	TransportStreamID        uint16
	Type                     EITType
	VersionNumber            uint8
}

// EITEventRecord is the display-ready copy of one EIT event. StartTime is an
// offset timestamp string and Duration a number of seconds; both render as
// +Inf when the stream marked them unspecified.
type EITEventRecord struct {
	Descriptors    []DescriptorRecord
	Duration       float64
	EventID        uint16
	HasFreeCSAMode bool
	RunningStatus  uint8
	StartTime      string
}

// DescriptorRecord is the display-ready copy of a descriptor. Tags without a
// decoded variant keep nothing but the tag itself.
type DescriptorRecord struct {
	ExtendedEvent *ExtendedEventRecord
	ShortEvent    *ShortEventRecord
	Tag           uint8
}

// ShortEventRecord carries the decoded fields of a short event descriptor.
type ShortEventRecord struct {
	EventName string
	Language  string
	Text      string
}

// ExtendedEventRecord carries the decoded fields of an extended event
// descriptor.
type ExtendedEventRecord struct {
	Items                []ExtendedEventItemRecord
	Language             string
	LastDescriptorNumber uint8
	Number               uint8
	Text                 string
}

// ExtendedEventItemRecord carries one decoded extended event item.
type ExtendedEventItemRecord struct {
	Content     string
	Description string
}

// TOTRecord is the display-ready copy of a TOT section.
type TOTRecord struct {
	JSTTime string
}

// Presenter filters decoded tables, decodes their remaining raw fields and
// writes one formatted block per accepted record to its sink. Writes are not
// buffered across records.
type Presenter struct {
	dump   spew.ConfigState
	filter Filter
	w      io.Writer
}

// NewPresenter creates a presenter writing to w the records accepted by f.
func NewPresenter(w io.Writer, f Filter) *Presenter {
	return &Presenter{
		dump: spew.ConfigState{
			DisableCapacities:       true,
			DisablePointerAddresses: true,
			Indent:                  "  ",
			SortKeys:                true,
		},
		filter: f,
		w:      w,
	}
}

// HandleTable presents one decoded table.
func (p *Presenter) HandleTable(t *Table) error {
	switch {
	case t.EIT != nil:
		return p.presentEIT(t.EIT)
	case t.TOT != nil:
		return p.presentTOT(t.TOT)
	}
	return nil
}

func (p *Presenter) presentEIT(d *EITData) error {
	// A nil event list is an upstream checksum mismatch artifact and must
	// never surface as a valid record
	if d.Events == nil {
		return nil
	}

	// Only EITs describing the stream they are carried on are of interest
	t, ok := classifyEIT(d.TableID, d.SectionNumber)
	if !ok {
		return nil
	}
	if !p.filter.matchType(t) || !p.filter.matchServiceID(d.ServiceID) {
		return nil
	}
	if !p.filter.matchEvents(d.Events) {
		return nil
	}
	return p.write(fmt.Sprintf("EIT %s service_id=%d", t, d.ServiceID), formatEIT(d, t))
}

func (p *Presenter) presentTOT(d *TOTData) error {
	return p.write("TOT", TOTRecord{JSTTime: d.JSTTime.Format(time.RFC3339)})
}

// write emits one record block: banner, rule, structured dump, rule.
func (p *Presenter) write(banner string, record interface{}) (err error) {
	if _, err = fmt.Fprintf(p.w, "%s\n%s\n", banner, presenterRule); err != nil {
		err = fmt.Errorf("sidump: writing banner failed: %w", err)
		return
	}
	p.dump.Fdump(p.w, record)
	if _, err = fmt.Fprintf(p.w, "%s\n", presenterRule); err != nil {
		err = fmt.Errorf("sidump: writing rule failed: %w", err)
		return
	}
	return
}

func formatEIT(d *EITData, t EITType) (r EITRecord) {
	r = EITRecord{
		Events:                   []EITEventRecord{},
		IsCurrent:                d.IsCurrent,
		LastSectionNumber:        d.LastSectionNumber,
		LastTableID:              d.LastTableID,
		OriginalNetworkID:        d.OriginalNetworkID,
		SectionNumber:            d.SectionNumber,
		SegmentLastSectionNumber: d.SegmentLastSectionNumber,
		ServiceID:                d.ServiceID,
		TableID:                  d.TableID,
		TransportStreamID:        d.TransportStreamID,
		Type:                     t,
		VersionNumber:            d.VersionNumber,
	}
	for _, e := range d.Events {
		r.Events = append(r.Events, formatEITEvent(e))
	}
	return
}

func formatEITEvent(e *EITDataEvent) (r EITEventRecord) {
	r = EITEventRecord{
		Duration:       formatEventDuration(e.Duration),
		EventID:        e.EventID,
		HasFreeCSAMode: e.HasFreeCSAMode,
		RunningStatus:  e.RunningStatus,
		StartTime:      formatEventTime(e.StartTime),
	}
	for _, d := range e.Descriptors {
		r.Descriptors = append(r.Descriptors, formatDescriptor(d))
	}
	return
}

func formatDescriptor(d *Descriptor) (r DescriptorRecord) {
	r = DescriptorRecord{Tag: d.Tag}
	switch {
	case d.ShortEvent != nil:
		r.ShortEvent = &ShortEventRecord{
			EventName: decodeText(d.ShortEvent.EventName),
			Language:  languageCode(d.ShortEvent.Language),
			Text:      decodeText(d.ShortEvent.Text),
		}
	case d.ExtendedEvent != nil:
		r.ExtendedEvent = &ExtendedEventRecord{
			Language:             languageCode(d.ExtendedEvent.ISO639LanguageCode),
			LastDescriptorNumber: d.ExtendedEvent.LastDescriptorNumber,
			Number:               d.ExtendedEvent.Number,
			Text:                 decodeText(d.ExtendedEvent.Text),
		}
		for _, item := range d.ExtendedEvent.Items {
			r.ExtendedEvent.Items = append(r.ExtendedEvent.Items, ExtendedEventItemRecord{
				Content:     decodeText(item.Content),
				Description: decodeText(item.Description),
			})
		}
	default:
		logger.Debugf("sidump: no decoded rendition for descriptor tag 0x%x", d.Tag)
	}
	return
}

func formatEventTime(t EventTime) string {
	if t.Unspecified {
		return "+Inf"
	}
	return t.Time.Format(time.RFC3339)
}

func formatEventDuration(d EventDuration) float64 {
	if d.Unspecified {
		return math.Inf(1)
	}
	return d.Duration.Seconds()
}

// languageCode renders a 3-byte ISO 639 code as a 3-character string.
func languageCode(bs []byte) string {
	return string(bs)
}

// decodeText decodes an ARIB STD-B24 coded character field. Text that can't
// be decoded is logged and rendered empty rather than aborting the dump.
func decodeText(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	s, err := b24.DecodeString(bs)
	if err != nil {
		logger.Warnf("sidump: decoding text field failed: %s", err)
		return ""
	}
	return s
}
