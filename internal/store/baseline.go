// Package store handles the two persisted data files: the static baseline
// timetable and the manual-override file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"raspbot/internal/model"
)

var (
	// ErrBaselineMissing marks a day/variant combination absent from the
	// baseline timetable.
	ErrBaselineMissing = errors.New("baseline entry missing")
	// ErrPersistence marks an I/O or decode failure on a data file.
	ErrPersistence = errors.New("persistence failure")
)

// baselineLessonJSON mirrors the on-disk lesson shape:
// {"name": ..., "teacher": ..., "cab": ...}.
type baselineLessonJSON struct {
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
	Cab     string `json:"cab"`
}

// BaselineStore loads and serves the static baseline timetable. The file
// never changes at runtime, so it is decoded once and kept in memory.
type BaselineStore struct {
	table model.BaselineTable
}

// LoadBaseline reads and validates the baseline file. The on-disk format is
// a JSON array of single-day objects:
//
//	[ { "Среда": { "числитель": { "2": {"name","teacher","cab"} },
//	               "знаменатель": { ... } } }, ... ]
//
// Unknown day or variant keys and non-numeric pair keys are load-time
// errors rather than deferred lookup surprises.
func LoadBaseline(path string) (*BaselineStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read baseline: %v", ErrPersistence, err)
	}

	var raw []map[string]map[string]map[string]baselineLessonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode baseline: %v", ErrPersistence, err)
	}

	table := make(model.BaselineTable)
	for _, entry := range raw {
		for dayName, variants := range entry {
			day, err := model.ParseWeekday(dayName)
			if err != nil {
				return nil, fmt.Errorf("%w: baseline: %v", ErrPersistence, err)
			}
			if _, dup := table[day]; dup {
				return nil, fmt.Errorf("%w: baseline: duplicate day %q", ErrPersistence, dayName)
			}
			byVariant := make(map[model.Variant]model.BaselineDay, len(variants))
			for variantName, pairs := range variants {
				variant, err := model.ParseVariant(variantName)
				if err != nil {
					return nil, fmt.Errorf("%w: baseline day %q: %v", ErrPersistence, dayName, err)
				}
				lessons := make(model.BaselineDay, len(pairs))
				for pairKey, l := range pairs {
					pair, err := strconv.Atoi(pairKey)
					if err != nil || pair <= 0 {
						return nil, fmt.Errorf("%w: baseline day %q: bad pair key %q", ErrPersistence, dayName, pairKey)
					}
					lessons[pair] = model.BaselineLesson{
						Pair:    pair,
						Subject: l.Name,
						Teacher: l.Teacher,
						Room:    l.Cab,
					}
				}
				byVariant[variant] = lessons
			}
			table[day] = byVariant
		}
	}

	return &BaselineStore{table: table}, nil
}

// Day returns the baseline lessons for the given weekday and variant.
// A missing weekday or variant key yields ErrBaselineMissing; a present
// branch with zero lessons is a valid empty day.
func (s *BaselineStore) Day(day model.Weekday, variant model.Variant) (model.BaselineDay, error) {
	byVariant, ok := s.table[day]
	if !ok {
		return nil, fmt.Errorf("%w: day %s", ErrBaselineMissing, day.Label())
	}
	lessons, ok := byVariant[variant]
	if !ok {
		return nil, fmt.Errorf("%w: day %s variant %s", ErrBaselineMissing, day.Label(), variant)
	}

	// Copy so callers cannot mutate the shared table.
	out := make(model.BaselineDay, len(lessons))
	for k, v := range lessons {
		out[k] = v
	}
	return out, nil
}

// Table exposes the full baseline, used by the ICS export.
func (s *BaselineStore) Table() model.BaselineTable {
	return s.table
}
