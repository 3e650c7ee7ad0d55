// Package format produces the canonical date strings and labels used for ledger routing and replies.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	shortDateLayout = "02-01-06"
)

var monthSheets = [12]string{"JAN", "FEB", "MAR", "APR", "MEI", "JUN", "JUL", "AGU", "SEP", "OKT", "NOV", "DES"}

// MonthSheets all month-bucket labels in calendar order
func MonthSheets() []string {
	return append([]string(nil), monthSheets[:]...)
}

// MonthSheet returns the Indonesian three-letter month label for t ("MEI" for May)
func MonthSheet(t time.Time) string {
	return monthSheets[t.Month()-1]
}

// Date renders t as YYYY-MM-DD
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// ShortDate renders t as DD-MM-YY
func ShortDate(t time.Time) string {
	return t.Format(shortDateLayout)
}

// Day truncates t to midnight in loc
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

var indonesianMonths = map[string]time.Month{
	"jan": time.January, "januari": time.January,
	"feb": time.February, "februari": time.February,
	"mar": time.March, "maret": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May,
	"jun": time.June, "juni": time.June,
	"jul": time.July, "juli": time.July,
	"agu": time.August, "agt": time.August, "agustus": time.August,
	"sep": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October,
	"nov": time.November, "november": time.November,
	"des": time.December, "desember": time.December,
}

var numericLayouts = []string{dateLayout, "02-01-2006", "2-1-2006", "02/01/2006", "2/1/2006", shortDateLayout}

var wordDate = regexp.MustCompile(`^(\d{1,2})\s+([a-zA-Z]+)\s+(\d{4})$`)

// ParseDate accepts ISO dates, day-first numeric dates and "11 Januari 2010"
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range numericLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if m := wordDate.FindStringSubmatch(s); m != nil {
		month, ok := indonesianMonths[strings.ToLower(m[2])]
		if ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			t := time.Date(year, month, day, 0, 0, 0, 0, loc)
			if t.Day() == day {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
