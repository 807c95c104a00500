package models

import (
	"math"
	"time"
)

// SerialEpoch is day zero of the spreadsheet date-serial encoding.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// ToSerial returns the whole-day serial for the calendar date of t.
// The time of day and location offset are ignored.
func ToSerial(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(SerialEpoch) / day)
}

// FromSerial converts a serial (fractional part is the time of day) to UTC.
func FromSerial(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	t := SerialEpoch.AddDate(0, 0, int(days))
	return t.Add(time.Duration(math.Round(frac * float64(day))))
}

// YearBounds returns the serials of January 1 and December 31 of year.
func YearBounds(year int) (start, end int) {
	start = ToSerial(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	end = ToSerial(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	return start, end
}

// SerialRanges holds the boundaries the prompts give the model.
type SerialRanges struct {
	CurrentYear      int
	CurrentYearStart int
	CurrentYearEnd   int
	LastYear         int
	LastYearStart    int
	LastYearEnd      int
}

// RangesFor computes the current/last-year serial boundaries for now.
func RangesFor(now time.Time) SerialRanges {
	year := now.Year()
	cs, ce := YearBounds(year)
	ls, le := YearBounds(year - 1)
	return SerialRanges{
		CurrentYear:      year,
		CurrentYearStart: cs,
		CurrentYearEnd:   ce,
		LastYear:         year - 1,
		LastYearStart:    ls,
		LastYearEnd:      le,
	}
}
