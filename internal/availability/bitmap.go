// Package availability encodes an instructor's daily availability as a
// fixed-size bitmap of 15-minute slots.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// SlotMinutes is the granularity of the bitmap.
	SlotMinutes = 15
	// SlotsPerDay is the number of slots in one calendar day.
	SlotsPerDay = 24 * 60 / SlotMinutes
	// BytesPerDay is the encoded size of one day.
	BytesPerDay = SlotsPerDay / 8
)

var (
	ErrInvalidTime   = errors.New("invalid time of day")
	ErrMisaligned    = errors.New("time is not aligned to 15 minutes")
	ErrEmptyWindow   = errors.New("window start must be before end")
	ErrInvalidLength = errors.New("invalid bitmap length")
)

// Window is a half-open time-of-day range written as "HH:MM". End may be "24:00".
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayBits is the slot bitmap of one day. Slot i lives in byte i/8, bit i%8.
type DayBits [BytesPerDay]byte

// ParseDayBits decodes stored bytes. Nil or empty input is an empty day.
func ParseDayBits(b []byte) (DayBits, error) {
	var d DayBits
	if len(b) == 0 {
		return d, nil
	}
	if len(b) != BytesPerDay {
		return d, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(b), BytesPerDay)
	}
	copy(d[:], b)
	return d, nil
}

// Bytes returns the encoded form for storage.
func (d DayBits) Bytes() []byte {
	out := make([]byte, BytesPerDay)
	copy(out, d[:])
	return out
}

// Set reports whether slot i is available.
func (d DayBits) Set(i int) bool {
	if i < 0 || i >= SlotsPerDay {
		return false
	}
	return d[i/8]&(1<<(uint(i)%8)) != 0
}

// Empty reports whether no slot is set.
func (d DayBits) Empty() bool {
	for _, b := range d {
		if b != 0 {
			return false
		}
	}
	return true
}

func (d *DayBits) mark(from, to int, on bool) {
	for i := from; i < to; i++ {
		if on {
			d[i/8] |= 1 << (uint(i) % 8)
		} else {
			d[i/8] &^= 1 << (uint(i) % 8)
		}
	}
}

// Covers reports whether every slot in [start, end) is set. start and end are
// minutes since local midnight and must be slot aligned.
func (d DayBits) Covers(startMin, endMin int) bool {
	from, to, err := slotRange(startMin, endMin)
	if err != nil {
		return false
	}
	for i := from; i < to; i++ {
		if !d.Set(i) {
			return false
		}
	}
	return true
}

// Clear unsets every slot in [start, end).
func (d *DayBits) Clear(startMin, endMin int) error {
	from, to, err := slotRange(startMin, endMin)
	if err != nil {
		return err
	}
	d.mark(from, to, false)
	return nil
}

func slotRange(startMin, endMin int) (int, int, error) {
	if startMin < 0 || endMin > 24*60 {
		return 0, 0, ErrInvalidTime
	}
	if startMin%SlotMinutes != 0 || endMin%SlotMinutes != 0 {
		return 0, 0, ErrMisaligned
	}
	if startMin >= endMin {
		return 0, 0, ErrEmptyWindow
	}
	return startMin / SlotMinutes, endMin / SlotMinutes, nil
}

// BitsFromWindows encodes windows into a bitmap. Overlapping windows are merged.
func BitsFromWindows(windows []Window) (DayBits, error) {
	var d DayBits
	for _, w := range windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			return DayBits{}, fmt.Errorf("start %q: %w", w.Start, err)
		}
		end, err := ParseClock(w.End)
		if err != nil {
			return DayBits{}, fmt.Errorf("end %q: %w", w.End, err)
		}
		from, to, err := slotRange(start, end)
		if err != nil {
			return DayBits{}, fmt.Errorf("window %s-%s: %w", w.Start, w.End, err)
		}
		d.mark(from, to, true)
	}
	return d, nil
}

// WindowsFromBits returns the maximal runs of set slots in time order.
func WindowsFromBits(d DayBits) []Window {
	out := make([]Window, 0)
	run := -1
	for i := 0; i <= SlotsPerDay; i++ {
		on := i < SlotsPerDay && d.Set(i)
		switch {
		case on && run < 0:
			run = i
		case !on && run >= 0:
			out = append(out, Window{Start: FormatClock(run * SlotMinutes), End: FormatClock(i * SlotMinutes)})
			run = -1
		}
	}
	return out
}

// NormalizeWindows merges and sorts windows the same way a round trip through
// the bitmap would.
func NormalizeWindows(windows []Window) ([]Window, error) {
	d, err := BitsFromWindows(windows)
	if err != nil {
		return nil, err
	}
	return WindowsFromBits(d), nil
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidTime
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	if !ok1 || !ok2 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, ErrInvalidTime
	}
	min := h*60 + m
	if min%SlotMinutes != 0 {
		return 0, ErrMisaligned
	}
	return min, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// MinuteOfDay returns the minutes elapsed since midnight of t in t's location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DateOf truncates t to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// WeekDates returns the seven dates starting at weekStart, which must be a Monday.
func WeekDates(weekStart time.Time) ([]time.Time, error) {
	if weekStart.Weekday() != time.Monday {
		return nil, fmt.Errorf("week must start on a Monday, got %s", weekStart.Weekday())
	}
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = weekStart.AddDate(0, 0, i)
	}
	return out, nil
}

// Range is a booked interval in minutes since midnight.
type Range struct {
	Start int
	End   int
}

// OpenStarts lists the start minutes, in 15-minute steps, at which a lesson of
// durationMin fits entirely inside set slots without overlapping busy.
func OpenStarts(d DayBits, durationMin int, busy []Range) []int {
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })
	out := make([]int, 0)
	if durationMin <= 0 || durationMin%SlotMinutes != 0 {
		return out
	}
	for start := 0; start+durationMin <= 24*60; start += SlotMinutes {
		end := start + durationMin
		if !d.Covers(start, end) {
			continue
		}
		free := true
		for _, b := range busy {
			if b.Start < end && start < b.End {
				free = false
				break
			}
		}
		if free {
			out = append(out, start)
		}
	}
	return out
}
