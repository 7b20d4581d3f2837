package schedule

import (
	"sort"

	"raspbot/internal/model"
)

// highlightPair is the slot that gets the distinguished "this slot changed"
// announcement when it resolves to anything other than baseline.
const highlightPair = 2

// Merge combines baseline lessons, site substitutions and date-valid
// overrides into one resolved day.
//
// The pair-number universe is the union of all three inputs, swept in
// ascending numeric order; per pair the precedence is strict:
// Override > SiteSubstitution > Baseline. Orphan substitutions and
// overrides (pairs absent from baseline) still surface.
//
// When pair 2 resolves to a non-baseline source it is placed first with
// Highlight set and skipped in the sweep.
func Merge(baseline model.BaselineDay, subs map[int]model.SiteSubstitution, overrides map[int]model.Override) model.ResolvedDay {
	pairSet := make(map[int]struct{}, len(baseline)+len(subs)+len(overrides))
	for p := range baseline {
		pairSet[p] = struct{}{}
	}
	for p := range subs {
		pairSet[p] = struct{}{}
	}
	for p := range overrides {
		pairSet[p] = struct{}{}
	}

	pairs := make([]int, 0, len(pairSet))
	for p := range pairSet {
		pairs = append(pairs, p)
	}
	sort.Ints(pairs)

	var day model.ResolvedDay

	banner, hasBanner := resolveOne(highlightPair, baseline, subs, overrides)
	if hasBanner && banner.Source != model.SourceBaseline {
		banner.Highlight = true
		day.Pairs = append(day.Pairs, banner)
	} else {
		hasBanner = false
	}

	for _, p := range pairs {
		if hasBanner && p == highlightPair {
			continue
		}
		rp, ok := resolveOne(p, baseline, subs, overrides)
		if !ok {
			continue
		}
		day.Pairs = append(day.Pairs, rp)
	}

	return day
}

// resolveOne applies the precedence order for a single pair number. The
// second return value is false when no source has an entry for the pair.
func resolveOne(pair int, baseline model.BaselineDay, subs map[int]model.SiteSubstitution, overrides map[int]model.Override) (model.ResolvedPair, bool) {
	if o, ok := overrides[pair]; ok {
		return model.ResolvedPair{
			Pair:    pair,
			Subject: o.Subject,
			Room:    o.Room,
			Source:  model.SourceOverride,
		}, true
	}
	if s, ok := subs[pair]; ok {
		return model.ResolvedPair{
			Pair:    pair,
			Subject: s.Subject,
			Room:    s.Room,
			Source:  model.SourceSubstitution,
		}, true
	}
	if b, ok := baseline[pair]; ok {
		return model.ResolvedPair{
			Pair:    pair,
			Subject: b.Subject,
			Teacher: b.Teacher,
			Room:    b.Room,
			Source:  model.SourceBaseline,
		}, true
	}
	return model.ResolvedPair{Pair: pair, Source: model.SourceEmpty}, false
}
