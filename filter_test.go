package sidump

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEIT(t *testing.T) {
	for _, v := range []struct {
		ok            bool
		sectionNumber uint8
		tableID       uint8
		typ           EITType
	}{
		{ok: true, sectionNumber: 0, tableID: 0x4e, typ: EITTypePresent},
		{ok: true, sectionNumber: 1, tableID: 0x4e, typ: EITTypeFollowing},
		{ok: true, sectionNumber: 0, tableID: 0x50, typ: EITTypeSchedule},
		{ok: true, sectionNumber: 7, tableID: 0x51, typ: EITTypeSchedule},
		{ok: true, sectionNumber: 0, tableID: 0x5f, typ: EITTypeSchedule},
		{ok: false, tableID: 0x4f},
		{ok: false, tableID: 0x60},
		{ok: false, tableID: 0x6f},
		{ok: false, tableID: 0x4d},
	} {
		typ, ok := classifyEIT(v.tableID, v.sectionNumber)
		assert.Equal(t, v.ok, ok, "table id 0x%x", v.tableID)
		assert.Equal(t, v.typ, typ, "table id 0x%x", v.tableID)
	}
}

func TestParseEITTypes(t *testing.T) {
	ts, err := ParseEITTypes("")
	assert.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = ParseEITTypes("present,following")
	assert.NoError(t, err)
	assert.Equal(t, []EITType{EITTypePresent, EITTypeFollowing}, ts)

	_, err = ParseEITTypes("present,now")
	assert.Error(t, err)
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("")
	assert.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = ParseIDList("1024, 2048")
	assert.NoError(t, err)
	assert.Equal(t, []uint16{1024, 2048}, ids)

	_, err = ParseIDList("1024,12x")
	assert.Error(t, err)

	// Identifiers are 16 bits wide
	_, err = ParseIDList("70000")
	assert.Error(t, err)
}

func TestFilterMatchEvents(t *testing.T) {
	es := []*EITDataEvent{{EventID: 200}, {EventID: 100}}

	// No allow-list accepts anything, even an empty event list
	assert.True(t, Filter{}.matchEvents(es))
	assert.True(t, Filter{}.matchEvents([]*EITDataEvent{}))

	// One matching event is enough
	assert.True(t, Filter{EventIDs: []uint16{100}}.matchEvents(es))
	assert.False(t, Filter{EventIDs: []uint16{300}}.matchEvents(es))

	// An allow-list with nothing to match against rejects the record
	assert.False(t, Filter{EventIDs: []uint16{100}}.matchEvents([]*EITDataEvent{}))
}
