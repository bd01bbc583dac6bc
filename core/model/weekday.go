package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday identifies a day of the operating week. Monday is the first day.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists the operating week in planning order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// String returns the lowercase english day name.
func (d Weekday) String() string {
	switch d {
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	case Sunday:
		return "sunday"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the seven weekdays.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// ParseWeekday converts a day name (case insensitive) to a Weekday.
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Weekdays {
		if d.String() == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf returns the operating weekday of t.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday starts on Sunday.
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Weekday) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
