package appointment

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// Clock is a wall-clock time of day in minutes after midnight.
type Clock int

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	return Clock(h*60 + m), nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Slot is a half-open [Start, End) interval within one calendar day.
type Slot struct {
	Start Clock
	End   Clock
}

// NewSlot parses start and end as HH:MM and requires start < end.
func NewSlot(start, end string) (Slot, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Slot{}, validationError("start_time", err.Error())
	}
	e, err := ParseClock(end)
	if err != nil {
		return Slot{}, validationError("end_time", err.Error())
	}
	slot := Slot{Start: s, End: e}
	if err := slot.validate(); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

func (s Slot) validate() error {
	if s.Start < 0 || s.End > minutesPerDay {
		return validationError("start_time", "time must fall within a single day")
	}
	if s.Start >= s.End {
		return validationError("end_time", fmt.Sprintf("end %s must be after start %s", s.End, s.Start))
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Adjacent slots do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start < o.End && s.End > o.Start
}

// Within reports whether s lies entirely inside o.
func (s Slot) Within(o Slot) bool {
	return s.Start >= o.Start && s.End <= o.End
}

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// DateOf collapses an instant to its calendar date in loc, returned as midnight UTC
// so dates compare and key the same regardless of the canonical zone.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
