package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, CategoryOther, NormalizeCategory(""))
	assert.Equal(t, CategoryOther, NormalizeCategory("   "))
	assert.Equal(t, "Road trip", NormalizeCategory(" Road trip "), "free text is kept")
	assert.Contains(t, Categories(), CategoryOther)
}

func TestLocationRecordNames(t *testing.T) {
	custom := "Office"
	blank := "  "

	r := LocationRecord{LocationName: "Main Street", CustomName: &blank}
	r.Normalize()
	assert.Nil(t, r.CustomName)
	assert.Equal(t, "Main Street", r.DisplayName())

	r.CustomName = &custom
	assert.Equal(t, "Office", r.DisplayName())

	empty := LocationRecord{}
	empty.Normalize()
	assert.Equal(t, UnknownLocationName, empty.LocationName)
	assert.Equal(t, CategoryOther, empty.Category)
}

func TestSortTime(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Hour)

	assert.Equal(t, now, LocationRecord{}.SortTime(now))
	assert.Equal(t, ts, LocationRecord{Timestamp: &ts}.SortTime(now))
}
