package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is an explicit weekday enum keyed to the Russian labels used by
// both the baseline timetable file and the upstream site. It deliberately
// does not rely on any process-wide locale configuration.
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

var weekdayLabels = [...]string{
	Monday:    "Понедельник",
	Tuesday:   "Вторник",
	Wednesday: "Среда",
	Thursday:  "Четверг",
	Friday:    "Пятница",
	Saturday:  "Суббота",
	Sunday:    "Воскресенье",
}

// Label returns the capitalized Russian weekday name, as used for baseline
// file keys and display.
func (w Weekday) Label() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayLabels[w]
}

func (w Weekday) String() string { return w.Label() }

// ParseWeekday parses a Russian weekday name, case-insensitively.
// The site declares weekdays in lowercase ("среда"); baseline keys are
// capitalized ("Среда").
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for w, label := range weekdayLabels {
		if strings.EqualFold(s, label) {
			return Weekday(w), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf converts a calendar date into a Weekday.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday is Sunday-based.
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Variant identifies which of the two alternating week patterns is active.
type Variant int

const (
	VariantA Variant = iota // "числитель"
	VariantB                // "знаменатель"
)

var variantLabels = [...]string{
	VariantA: "числитель",
	VariantB: "знаменатель",
}

// Label returns the Russian keyword for the variant, as used for baseline
// file keys and on the upstream page.
func (v Variant) Label() string {
	if v < VariantA || v > VariantB {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantLabels[v]
}

func (v Variant) String() string {
	if v == VariantB {
		return "B"
	}
	return "A"
}

// ParseVariant parses a variant keyword, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	s = strings.TrimSpace(s)
	for v, label := range variantLabels {
		if strings.EqualFold(s, label) {
			return Variant(v), nil
		}
	}
	return 0, fmt.Errorf("unknown week variant %q", s)
}

// VariantForWeek derives the deterministic fallback variant from a date:
// odd ISO week number means A, even means B.
func VariantForWeek(t time.Time) Variant {
	_, week := t.ISOWeek()
	if week%2 != 0 {
		return VariantA
	}
	return VariantB
}
