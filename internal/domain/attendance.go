package domain

import (
	"time"
)

// TimestampLayout is the second-precision layout used for attendance timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the layout of the date filter.
const DateLayout = "2006-01-02"

// AttendanceRecord representa um registro de presença
type AttendanceRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceFilter narrows attendance listings. Zero values mean no filter.
type AttendanceFilter struct {
	Date          *time.Time
	NameSubstring string
	Limit         int
}

// NameCount is the number of records logged for one name.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DayCount is the number of records logged on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AttendanceSummary feeds the dashboard: totals per name and per day.
type AttendanceSummary struct {
	ByName []NameCount `json:"by_name"`
	ByDay  []DayCount  `json:"by_day"`
}

// Truncate drops sub-second precision, matching what the store keeps.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

// DayBounds returns the [start, end) interval covering the calendar day of t
// in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
