// Package schedule implements the resolution engine: it layers the baseline
// timetable, scraped substitutions and manual overrides into one resolved
// day, and keeps a staleness-tolerant cache so resolution survives source
// outages.
package schedule

import (
	"sync"
	"time"

	"raspbot/internal/model"
)

// Cache holds the last successful fetch results per field. Each field is
// read and written as one atomic unit with its own capture time; fields are
// otherwise independent (last write wins per field). Constructed empty and
// owned by the engine instance.
type Cache struct {
	mu sync.RWMutex

	subs   map[int]model.SiteSubstitution
	subsOK bool
	subsAt time.Time

	refDate    time.Time
	refWeekday model.Weekday
	refOK      bool
	refAt      time.Time

	variant   model.Variant
	variantOK bool
	variantAt time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// SetSubstitutions replaces the cached substitution map wholesale.
func (c *Cache) SetSubstitutions(subs map[int]model.SiteSubstitution, at time.Time) {
	cp := make(map[int]model.SiteSubstitution, len(subs))
	for k, v := range subs {
		cp[k] = v
	}
	c.mu.Lock()
	c.subs = cp
	c.subsOK = true
	c.subsAt = at
	c.mu.Unlock()
}

// Substitutions returns a copy of the cached substitution map, its capture
// time, and whether anything was ever cached.
func (c *Cache) Substitutions() (map[int]model.SiteSubstitution, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.subsOK {
		return nil, time.Time{}, false
	}
	cp := make(map[int]model.SiteSubstitution, len(c.subs))
	for k, v := range c.subs {
		cp[k] = v
	}
	return cp, c.subsAt, true
}

// SetReference stores the site-declared reference date and weekday.
func (c *Cache) SetReference(date time.Time, weekday model.Weekday, at time.Time) {
	c.mu.Lock()
	c.refDate = date
	c.refWeekday = weekday
	c.refOK = true
	c.refAt = at
	c.mu.Unlock()
}

// Reference returns the cached reference date and declared weekday.
func (c *Cache) Reference() (time.Time, model.Weekday, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refDate, c.refWeekday, c.refOK
}

// SetVariant stores the last observed week variant.
func (c *Cache) SetVariant(v model.Variant, at time.Time) {
	c.mu.Lock()
	c.variant = v
	c.variantOK = true
	c.variantAt = at
	c.mu.Unlock()
}

// Variant returns the cached week variant.
func (c *Cache) Variant() (model.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variant, c.variantOK
}

// LastUpdate returns the newest capture time across all fields, zero if
// nothing was ever stored.
func (c *Cache) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	latest := c.subsAt
	if c.refAt.After(latest) {
		latest = c.refAt
	}
	if c.variantAt.After(latest) {
		latest = c.variantAt
	}
	return latest
}
