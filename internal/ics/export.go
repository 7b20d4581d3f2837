// Package ics exports the baseline timetable as an iCalendar feed so the
// group's schedule can be subscribed to from any calendar app. The
// alternating week pattern maps onto biweekly recurrence rules.
package ics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"raspbot/internal/model"
)

// ExportConfig controls feed generation.
type ExportConfig struct {
	// Group is used for the calendar name.
	Group string

	// Location is the timezone lessons take place in.
	Location *time.Location

	// PairTimes maps pair number to its wall-time slot ("08:30-10:00").
	// Pairs without a known slot are skipped: a calendar event needs a
	// start time.
	PairTimes map[int]string

	// From anchors recurrence: each event's first occurrence is the next
	// date at or after From whose weekday and week parity match.
	From time.Time
}

// Export serializes the baseline table into an ICS document. Every
// (weekday, variant, pair) lesson becomes one VEVENT recurring every
// second week, anchored so that its occurrences fall only on weeks of the
// matching variant.
func Export(table model.BaselineTable, cfg ExportConfig) (string, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.From.IsZero() {
		cfg.From = time.Now().In(cfg.Location)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//raspbot//timetable//RU")
	cal.SetXWRCalName(fmt.Sprintf("Расписание %s", cfg.Group))

	for _, day := range sortedWeekdays(table) {
		byVariant := table[day]
		for _, variant := range []model.Variant{model.VariantA, model.VariantB} {
			lessons, ok := byVariant[variant]
			if !ok {
				continue
			}
			for _, pair := range sortedPairs(lessons) {
				lesson := lessons[pair]
				startHM, endHM, ok := parseSlot(cfg.PairTimes[pair])
				if !ok {
					continue
				}

				anchor := nextMatchingDate(cfg.From, day, variant)
				dtStart := at(anchor, startHM, cfg.Location)
				dtEnd := at(anchor, endHM, cfg.Location)

				rule, err := rrule.NewRRule(rrule.ROption{
					Freq:     rrule.WEEKLY,
					Interval: 2,
					Dtstart:  dtStart,
				})
				if err != nil {
					return "", fmt.Errorf("ics: build rrule for pair %d: %w", pair, err)
				}

				uid := fmt.Sprintf("raspbot-d%d-v%d-p%d", int(day), int(variant), pair)
				ev := cal.AddEvent(uid)
				ev.SetDtStampTime(cfg.From)
				ev.SetStartAt(dtStart)
				ev.SetEndAt(dtEnd)
				ev.SetSummary(lesson.Subject)
				ev.SetLocation(lesson.Room)
				if lesson.Teacher != "" {
					ev.SetDescription(fmt.Sprintf("Преподаватель: %s", lesson.Teacher))
				}
				ev.AddRrule(rule.OrigOptions.RRuleString())
			}
		}
	}

	return cal.Serialize(), nil
}

// nextMatchingDate finds the first date at or after from whose weekday is
// day and whose ISO week parity selects variant. The pattern repeats every
// two weeks, so fourteen days always contain a match.
func nextMatchingDate(from time.Time, day model.Weekday, variant model.Variant) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i < 14; i++ {
		if model.WeekdayOf(d) == day && model.VariantForWeek(d) == variant {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// parseSlot splits "08:30-10:00" into start and end times of day.
func parseSlot(slot string) (start, end [2]int, ok bool) {
	first, second, found := strings.Cut(strings.TrimSpace(slot), "-")
	if !found {
		return start, end, false
	}
	start, okA := parseHM(first)
	end, okB := parseHM(second)
	return start, end, okA && okB
}

func parseHM(s string) ([2]int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return [2]int{}, false
	}
	return [2]int{t.Hour(), t.Minute()}, true
}

func at(day time.Time, hm [2]int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hm[0], hm[1], 0, 0, loc)
}

func sortedWeekdays(table model.BaselineTable) []model.Weekday {
	days := make([]model.Weekday, 0, len(table))
	for d := range table {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func sortedPairs(day model.BaselineDay) []int {
	pairs := make([]int, 0, len(day))
	for p := range day {
		pairs = append(pairs, p)
	}
	sort.Ints(pairs)
	return pairs
}
