package entities

import "fmt"

// FuzzyDate is a calendar date whose year, month and day components are
// independently optional. A zero component means "unknown"; a FuzzyDate with
// all components zero is the unknown date.
type FuzzyDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// IsZero reports whether no component of the date is known.
func (d FuzzyDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the date as "2006-01-02", substituting "?" for unknown
// components. The unknown date renders as the empty string.
func (d FuzzyDate) String() string {
	if d.IsZero() {
		return ""
	}

	year := "????"
	if d.Year != 0 {
		year = fmt.Sprintf("%04d", d.Year)
	}
	month := "??"
	if d.Month != 0 {
		month = fmt.Sprintf("%02d", d.Month)
	}
	day := "??"
	if d.Day != 0 {
		day = fmt.Sprintf("%02d", d.Day)
	}

	return year + "-" + month + "-" + day
}
