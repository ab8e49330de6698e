package activity

import (
	"encoding/json"
	"time"
)

// Weekday indexes the day-of-week dimension, Monday first. The Monday-first
// ordering matches the report layout, not time.Weekday's Sunday-first one.
type Weekday int

// Weekday values.
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// NumWeekdays is the size of the day-of-week dimension.
const NumWeekdays = 7

// daysPerWeekOffset converts time.Weekday (Sunday=0) to Monday=0 indexing.
const daysPerWeekOffset = 6

var weekdayNames = [NumWeekdays]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var weekdayAbbrevs = [NumWeekdays]string{
	"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun",
}

// WeekdayOf returns the UTC calendar weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.UTC().Weekday()) + daysPerWeekOffset) % NumWeekdays)
}

// String returns the full English day name.
func (d Weekday) String() string {
	if d < 0 || d >= NumWeekdays {
		return "Unknown"
	}

	return weekdayNames[d]
}

// Abbrev returns the three-letter day name used in table headers.
func (d Weekday) Abbrev() string {
	if d < 0 || d >= NumWeekdays {
		return "???"
	}

	return weekdayAbbrevs[d]
}

// MarshalJSON emits the day name rather than the numeric index, keeping
// JSON reports readable without a decoder-side lookup table.
func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Weekdays returns all weekdays in report order, Monday through Sunday.
func Weekdays() [NumWeekdays]Weekday {
	return [NumWeekdays]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}
