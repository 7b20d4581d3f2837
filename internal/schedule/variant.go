package schedule

import (
	"strings"
	"time"

	"raspbot/internal/model"
	"raspbot/internal/source"
)

// scanVariant finds the first variant keyword across the marker regions in
// document order. Within one region the earlier keyword occurrence wins.
// Returns VariantA when no keyword appears at all.
func scanVariant(markers []string) model.Variant {
	for _, text := range markers {
		lower := strings.ToLower(text)
		ia := strings.Index(lower, model.VariantA.Label())
		ib := strings.Index(lower, model.VariantB.Label())
		switch {
		case ia >= 0 && (ib < 0 || ia < ib):
			return model.VariantA
		case ib >= 0:
			return model.VariantB
		}
	}
	return model.VariantA
}

// resolveVariant determines the active week variant. With a snapshot the
// page keyword wins and is cached; without one the fallback is the ISO
// week parity of the reference date (odd week A, even week B), which is
// exactly reproducible.
func (e *Engine) resolveVariant(snap *source.Snapshot, refDate time.Time) (model.Variant, model.Origin) {
	if snap != nil && len(snap.Markers) > 0 {
		v := scanVariant(snap.Markers)
		e.cache.SetVariant(v, snap.FetchedAt)
		return v, model.OriginSite
	}
	return model.VariantForWeek(refDate), model.OriginFallback
}
