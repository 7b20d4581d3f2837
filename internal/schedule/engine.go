package schedule

import (
	"context"
	"time"

	appLog "raspbot/internal/log"
	"raspbot/internal/model"
	"raspbot/internal/source"
	"raspbot/internal/store"
)

// Engine is the schedule resolution core. It owns the cache; all fallback
// policy lives here, so a resolution never fails for source-side reasons —
// only a missing baseline day or a failed override write surface as errors.
type Engine struct {
	provider  source.Provider
	baseline  *store.BaselineStore
	overrides *store.OverrideStore
	cache     *Cache
	group     string
	loc       *time.Location

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewEngine wires the engine with its collaborators. loc may be nil, in
// which case time.Local is used.
func NewEngine(provider source.Provider, baseline *store.BaselineStore, overrides *store.OverrideStore, group string, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		provider:  provider,
		baseline:  baseline,
		overrides: overrides,
		cache:     NewCache(),
		group:     group,
		loc:       loc,
		now:       time.Now,
	}
}

// Cache exposes the engine-owned cache for observability.
func (e *Engine) Cache() *Cache { return e.cache }

// ResolveToday resolves the schedule for the site's declared "today".
func (e *Engine) ResolveToday(ctx context.Context) (*model.Resolution, error) {
	return e.Resolve(ctx, 0)
}

// ResolveTomorrow resolves the schedule one day past the reference date.
func (e *Engine) ResolveTomorrow(ctx context.Context) (*model.Resolution, error) {
	return e.Resolve(ctx, 1)
}

// Resolve answers "what happens offsetDays from the reference date". One
// snapshot is fetched per request and shared by the temporal, variant and
// substitution resolvers, so the three cache fields are captured as one
// atomic unit when the fetch succeeds; on failure each resolver degrades
// independently per its own fallback rule.
//
// The only error condition is a day/variant combination absent from the
// baseline (store.ErrBaselineMissing); everything source-side degrades
// silently into the cache fallbacks.
func (e *Engine) Resolve(ctx context.Context, offsetDays int) (*model.Resolution, error) {
	snap, err := e.provider.Fetch(ctx)
	if err != nil {
		appLog.Info("source fetch failed; resolving from cache", "err", err, "offset_days", offsetDays)
		snap = nil
	}

	temporal := e.resolveTemporal(snap, offsetDays)

	// The offset-0 reference date anchors both the variant fallback and the
	// override filter. The target date must not leak into either: a tomorrow
	// request whose target crosses the Sunday/Monday ISO week boundary would
	// otherwise flip the fallback parity.
	refToday := temporal.Date.AddDate(0, 0, -offsetDays)

	variant, variantOrigin := e.resolveVariant(snap, refToday)
	subs, subsOrigin := e.resolveSubstitutions(snap)
	overrides := e.overrides.Load(e.group, refToday)

	baselineDay, err := e.baseline.Day(temporal.Weekday, variant)
	if err != nil {
		return nil, err
	}

	res := &model.Resolution{
		Date:          temporal.Date,
		Weekday:       temporal.Weekday,
		Variant:       variant,
		Day:           Merge(baselineDay, subs, overrides),
		DateOrigin:    temporal.Origin,
		VariantOrigin: variantOrigin,
		SubstOrigin:   subsOrigin,
		RefreshedAt:   e.cache.LastUpdate(),
	}
	return res, nil
}

// Refresh performs one proactive fetch and updates the cache fields. It is
// invoked on the background cron schedule independently of any resolution
// request; a failed fetch leaves the cache untouched.
func (e *Engine) Refresh(ctx context.Context) error {
	snap, err := e.provider.Fetch(ctx)
	if err != nil {
		return err
	}

	if snap.DeclaredDate != "" {
		if date, declared, hasDeclared, perr := parseDeclaredDate(snap.DeclaredDate, e.loc); perr == nil {
			if !hasDeclared {
				declared = model.WeekdayOf(date)
			}
			e.cache.SetReference(date, declared, snap.FetchedAt)
		} else {
			appLog.Error("refresh: declared date unparsable", perr, "text", snap.DeclaredDate)
		}
	}
	if len(snap.Markers) > 0 {
		e.cache.SetVariant(scanVariant(snap.Markers), snap.FetchedAt)
	}
	if snap.HasTable {
		e.cache.SetSubstitutions(normalizeRows(snap.Rows, e.group), snap.FetchedAt)
	}

	appLog.Info("background refresh completed",
		"rows", len(snap.Rows),
		"has_table", snap.HasTable,
		"declared", snap.DeclaredDate != "",
	)
	return nil
}

// RecordOverride saves a manual correction for one pair, effective for the
// current reference date. Write failures surface so the caller can report
// that the override was not saved.
func (e *Engine) RecordOverride(ctx context.Context, pair int, subject, room string) error {
	today := e.referenceToday(ctx)
	return e.overrides.Save(e.group, pair, subject, room, today)
}

// referenceToday picks the date an override should be stamped with: the
// site-declared today when available, the cached reference otherwise, and
// the wall clock as a last resort.
func (e *Engine) referenceToday(ctx context.Context) time.Time {
	snap, err := e.provider.Fetch(ctx)
	if err == nil && snap.DeclaredDate != "" {
		if date, declared, hasDeclared, perr := parseDeclaredDate(snap.DeclaredDate, e.loc); perr == nil {
			if !hasDeclared {
				declared = model.WeekdayOf(date)
			}
			e.cache.SetReference(date, declared, snap.FetchedAt)
			return date
		}
	}
	if date, _, ok := e.cache.Reference(); ok {
		return date
	}
	return e.now().In(e.loc)
}
