// Package model holds the typed schedule records shared between the store,
// the resolution engine and the HTTP adapter.
package model

import "time"

// DateLayout is the canonical on-disk / wire form of an effective date.
const DateLayout = "2006-01-02"

// BaselineLesson is one slot of the static reference timetable.
type BaselineLesson struct {
	Pair    int
	Subject string
	Teacher string
	Room    string
}

// BaselineDay maps pair number to lesson for one (weekday, variant) branch.
// Pair numbers need not be contiguous; a gap means no class that pair.
type BaselineDay map[int]BaselineLesson

// BaselineTable is the full baseline timetable:
// weekday -> week variant -> pair -> lesson.
type BaselineTable map[Weekday]map[Variant]BaselineDay

// SiteSubstitution is a temporary change scraped from the timetable page.
// The site publishes no teacher for substitutions.
type SiteSubstitution struct {
	Pair    int
	Subject string
	Room    string
}

// Override is a manually entered correction, valid only on the calendar
// date it was created.
type Override struct {
	Pair          int
	Subject       string
	Room          string
	EffectiveDate string // DateLayout
}

// PairSource tags where a resolved pair's fields came from.
type PairSource int

const (
	SourceEmpty PairSource = iota
	SourceBaseline
	SourceSubstitution
	SourceOverride
)

func (s PairSource) String() string {
	switch s {
	case SourceBaseline:
		return "baseline"
	case SourceSubstitution:
		return "substitution"
	case SourceOverride:
		return "override"
	default:
		return "empty"
	}
}

// ResolvedPair is the winning lesson for one pair number after merging.
type ResolvedPair struct {
	Pair    int
	Subject string
	Teacher string // only populated for SourceBaseline
	Room    string
	Source  PairSource
	// Highlight marks the distinguished pair-2 rendering: the slot changed
	// and is announced ahead of the normal sweep.
	Highlight bool
}

// ResolvedDay is the ordered presentation sequence for one day. When pair 2
// carries a non-baseline resolution it appears first with Highlight set and
// is not repeated in the ascending remainder.
type ResolvedDay struct {
	Pairs []ResolvedPair
}

// Empty reports whether the day resolved to no pairs at all, which is
// distinct from the day being absent from the baseline.
func (d ResolvedDay) Empty() bool { return len(d.Pairs) == 0 }

// Origin tags whether a resolver's answer came from the live site or from
// a fallback (cache or wall clock).
type Origin string

const (
	OriginSite     Origin = "site"
	OriginFallback Origin = "fallback"
)

// Resolution is the full answer for one today/tomorrow request.
type Resolution struct {
	Date    time.Time
	Weekday Weekday
	Variant Variant

	Day ResolvedDay

	DateOrigin    Origin
	VariantOrigin Origin
	SubstOrigin   Origin

	// RefreshedAt is the capture time of the newest cache field, shown to
	// the user as "data refreshed at". Zero when nothing was ever fetched.
	RefreshedAt time.Time
}
