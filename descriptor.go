package sidump

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// Descriptor tags decoded beyond their raw payload.
// Page: 42 | Chapter: 6.1 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
const (
	DescriptorTagExtendedEvent = 0x4e
	DescriptorTagShortEvent    = 0x4d
)

// Descriptor represents one descriptor from an event descriptor loop.
// The tag selects which of the decoded variants is set; every descriptor
// keeps its raw payload in Raw.
type Descriptor struct {
	ExtendedEvent *DescriptorExtendedEvent
	Length        uint8
	Raw           []byte
	ShortEvent    *DescriptorShortEvent
	Tag           uint8
}

// DescriptorShortEvent represents a short event descriptor.
// Text fields stay raw here since their character coding (ARIB STD-B24) is a
// presentation concern.
// Page: 99 | Chapter: 6.2.37 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type DescriptorShortEvent struct {
	EventName []byte
	Language  []byte
	Text      []byte
}

// DescriptorExtendedEvent represents an extended event descriptor
// Page: 97 | Chapter: 6.2.15 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type DescriptorExtendedEvent struct {
	ISO639LanguageCode   []byte
	Items                []*DescriptorExtendedEventItem
	LastDescriptorNumber uint8
	Number               uint8
	Text                 []byte
}

// DescriptorExtendedEventItem represents an extended event item descriptor
type DescriptorExtendedEventItem struct {
	Content     []byte
	Description []byte
}

// parseDescriptors parses a 12-bit length prefixed descriptor loop.
func parseDescriptors(i *astikit.BytesIterator) (o []*Descriptor, err error) {
	// Get next 2 bytes
	var bs []byte
	if bs, err = i.NextBytes(2); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}

	// Loop length
	length := int(bs[0]&0xf)<<8 | int(bs[1])
	offsetEnd := i.Offset() + length

	// Loop
	for i.Offset() < offsetEnd {
		d := &Descriptor{}
		if bs, err = i.NextBytes(2); err != nil {
			err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
			return
		}
		d.Tag = bs[0]
		d.Length = bs[1]
		if d.Raw, err = i.NextBytes(int(d.Length)); err != nil {
			err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
			return
		}

		switch d.Tag {
		case DescriptorTagShortEvent:
			if d.ShortEvent, err = newDescriptorShortEvent(d.Raw); err != nil {
				err = fmt.Errorf("sidump: parsing short event descriptor failed: %w", err)
				return
			}
		case DescriptorTagExtendedEvent:
			if d.ExtendedEvent, err = newDescriptorExtendedEvent(d.Raw); err != nil {
				err = fmt.Errorf("sidump: parsing extended event descriptor failed: %w", err)
				return
			}
		}
		o = append(o, d)
	}
	return
}

func newDescriptorShortEvent(bs []byte) (d *DescriptorShortEvent, err error) {
	// Init
	d = &DescriptorShortEvent{}
	i := astikit.NewBytesIterator(bs)

	// ISO 639 language code
	if d.Language, err = i.NextBytes(3); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}

	// Event name
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	if d.EventName, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}

	// Text
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	if d.Text, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	return
}

func newDescriptorExtendedEvent(bs []byte) (d *DescriptorExtendedEvent, err error) {
	// Init
	d = &DescriptorExtendedEvent{}
	i := astikit.NewBytesIterator(bs)

	// Descriptor number / last descriptor number
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	d.Number = b >> 4
	d.LastDescriptorNumber = b & 0xf

	// ISO 639 language code
	if d.ISO639LanguageCode, err = i.NextBytes(3); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}

	// Items
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	offsetEnd := i.Offset() + int(b)
	for i.Offset() < offsetEnd {
		var item *DescriptorExtendedEventItem
		if item, err = newDescriptorExtendedEventItem(i); err != nil {
			err = fmt.Errorf("sidump: parsing extended event item failed: %w", err)
			return
		}
		d.Items = append(d.Items, item)
	}

	// Text
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	if d.Text, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	return
}

func newDescriptorExtendedEventItem(i *astikit.BytesIterator) (d *DescriptorExtendedEventItem, err error) {
	// Init
	d = &DescriptorExtendedEventItem{}

	// Description
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	if d.Description, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}

	// Content
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("sidump: fetching next byte failed: %w", err)
		return
	}
	if d.Content, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("sidump: fetching next bytes failed: %w", err)
		return
	}
	return
}
