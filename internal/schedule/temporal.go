package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appLog "raspbot/internal/log"
	"raspbot/internal/model"
	"raspbot/internal/source"
)

// The site declares its date in one marker line:
//
//	"Изменения в расписании на 5 февраля 2025 года / среда"
//
// Month names appear in the genitive case; the table below is the single
// supported locale, deliberately independent of any process-wide setting.
var monthsGenitive = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// parseDeclaredDate extracts the reference date and declared weekday from
// the marker line. The weekday part is optional on some holiday pages.
func parseDeclaredDate(text string, loc *time.Location) (time.Time, model.Weekday, bool, error) {
	idx := strings.Index(text, dateMarkerPhrase)
	if idx < 0 {
		return time.Time{}, 0, false, fmt.Errorf("%w: marker phrase not found", source.ErrUnparsable)
	}
	rest := strings.TrimSpace(text[idx+len(dateMarkerPhrase):])

	datePart := rest
	dayPart := ""
	if slash := strings.Index(rest, "/"); slash >= 0 {
		datePart = strings.TrimSpace(rest[:slash])
		dayPart = strings.TrimSpace(rest[slash+1:])
	}

	date, err := parseRussianDate(datePart, loc)
	if err != nil {
		return time.Time{}, 0, false, err
	}

	if dayPart != "" {
		if weekday, werr := model.ParseWeekday(dayPart); werr == nil {
			return date, weekday, true, nil
		}
	}
	return date, 0, false, nil
}

const dateMarkerPhrase = "расписании на"

// parseRussianDate parses "5 февраля 2025 года" (the trailing "года" is
// optional) using the genitive month table.
func parseRussianDate(s string, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return time.Time{}, fmt.Errorf("%w: short date expression %q", source.ErrUnparsable, s)
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: bad day-of-month %q", source.ErrUnparsable, fields[0])
	}

	month, ok := monthsGenitive[strings.ToLower(fields[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", source.ErrUnparsable, fields[1])
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil || year < 2000 || year > 2200 {
		return time.Time{}, fmt.Errorf("%w: bad year %q", source.ErrUnparsable, fields[2])
	}

	return time.Date(year, month, day, 0, 0, 0, 0, loc), nil
}

// temporalResult is the Temporal Resolver's answer; it never fails, only
// degrades.
type temporalResult struct {
	Date    time.Time
	Weekday model.Weekday
	Origin  model.Origin
}

// resolveTemporal determines the authoritative date and weekday for the
// request.
//
// With a usable snapshot the site's declaration wins, and at offset 0 the
// declared weekday is returned verbatim even when it diverges from the
// calendar (holiday pages legitimately do this). Any offset is applied to
// the declared date with the weekday recomputed from the calendar.
//
// Without a snapshot (or with an unparsable declaration) the cached
// reference date is used, then the wall clock; the weekday is then always
// calendar-derived, including at offset 0.
func (e *Engine) resolveTemporal(snap *source.Snapshot, offsetDays int) temporalResult {
	if snap != nil && snap.DeclaredDate != "" {
		date, declared, hasDeclared, err := parseDeclaredDate(snap.DeclaredDate, e.loc)
		if err == nil {
			if !hasDeclared {
				declared = model.WeekdayOf(date)
			}
			e.cache.SetReference(date, declared, snap.FetchedAt)
			if offsetDays == 0 && hasDeclared {
				return temporalResult{Date: date, Weekday: declared, Origin: model.OriginSite}
			}
			target := date.AddDate(0, 0, offsetDays)
			return temporalResult{Date: target, Weekday: model.WeekdayOf(target), Origin: model.OriginSite}
		}
		appLog.Error("declared date unparsable; falling back", err, "text", snap.DeclaredDate)
	}

	base, _, ok := e.cache.Reference()
	if !ok {
		base = e.now().In(e.loc)
	}
	target := base.AddDate(0, 0, offsetDays)
	return temporalResult{Date: target, Weekday: model.WeekdayOf(target), Origin: model.OriginFallback}
}
