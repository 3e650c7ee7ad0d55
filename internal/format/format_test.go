package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthSheet(t *testing.T) {
	assert.Equal(t, "JAN", MonthSheet(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "MEI", MonthSheet(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "AGU", MonthSheet(time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "DES", MonthSheet(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, MonthSheets(), 12)
}

func TestDateLayouts(t *testing.T) {
	d := time.Date(2010, time.January, 11, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "2010-01-11", Date(d))
	assert.Equal(t, "11-01-10", ShortDate(d))
}

func TestDay_UsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	d := Day(time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC), jakarta)
	assert.Equal(t, "2024-04-01", Date(d))
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2010-01-11", "11-01-2010", "11/01/2010", "11 Januari 2010", "11 jan 2010"} {
		got, err := ParseDate(in, time.UTC)
		require.NoError(t, err, in)
		assert.Equal(t, "2010-01-11", Date(got), in)
	}
	_, err := ParseDate("31 Februari 2010", time.UTC)
	assert.Error(t, err)
	_, err = ParseDate("kemarin", time.UTC)
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Dana Darurat", Title("dana   darurat"))
	assert.Equal(t, "Haji & Umroh", Title(" HAJI & umroh "))
}
