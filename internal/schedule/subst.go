package schedule

import (
	"strconv"
	"strings"

	appLog "raspbot/internal/log"
	"raspbot/internal/model"
	"raspbot/internal/source"
)

// expandPairs expands a raw pair-number field into individual pair numbers.
// Tokens are comma-separated and are either a single number or an inclusive
// range "start-end" with start <= end. Malformed tokens are skipped, never
// fatal.
func expandPairs(raw string) []int {
	var out []int
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if start, end, ok := strings.Cut(token, "-"); ok {
			a, errA := strconv.Atoi(strings.TrimSpace(start))
			b, errB := strconv.Atoi(strings.TrimSpace(end))
			if errA != nil || errB != nil || a > b || a <= 0 {
				appLog.Debug("skipping malformed pair range", "token", token)
				continue
			}
			for p := a; p <= b; p++ {
				out = append(out, p)
			}
			continue
		}
		p, err := strconv.Atoi(token)
		if err != nil || p <= 0 {
			appLog.Debug("skipping malformed pair token", "token", token)
			continue
		}
		out = append(out, p)
	}
	return out
}

// normalizeRows converts raw table rows into the per-pair substitution map
// for one group. Later rows overwrite earlier ones for a shared pair number
// (last write wins within one fetch).
func normalizeRows(rows []source.Row, group string) map[int]model.SiteSubstitution {
	subs := make(map[int]model.SiteSubstitution)
	for _, row := range rows {
		if !strings.Contains(row.Group, group) {
			continue
		}
		for _, pair := range expandPairs(row.Pairs) {
			subs[pair] = model.SiteSubstitution{
				Pair:    pair,
				Subject: row.Subject,
				Room:    row.Room,
			}
		}
	}
	return subs
}

// resolveSubstitutions produces the substitution map for the request. A
// snapshot with a table replaces the cache atomically; otherwise the last
// cached map is served unchanged (possibly empty on first run).
func (e *Engine) resolveSubstitutions(snap *source.Snapshot) (map[int]model.SiteSubstitution, model.Origin) {
	if snap != nil && snap.HasTable {
		subs := normalizeRows(snap.Rows, e.group)
		e.cache.SetSubstitutions(subs, snap.FetchedAt)
		return subs, model.OriginSite
	}

	subs, _, ok := e.cache.Substitutions()
	if !ok {
		return map[int]model.SiteSubstitution{}, model.OriginFallback
	}
	return subs, model.OriginFallback
}
