package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	appLog "raspbot/internal/log"
	"raspbot/internal/model"
)

// overrideJSON mirrors the on-disk override shape:
// { "<group>": { "<pair>": {"name","cab","date"} } }.
type overrideJSON struct {
	Name string `json:"name"`
	Cab  string `json:"cab"`
	Date string `json:"date"`
}

type overrideFile map[string]map[string]overrideJSON

// OverrideStore persists manual per-pair overrides in one flat JSON file,
// rewritten wholesale on every save. Save serializes the whole
// read-modify-write cycle so concurrent writers cannot lose each other's
// entries.
type OverrideStore struct {
	path string
	mu   sync.Mutex
}

// NewOverrideStore creates a store backed by the given file path. The file
// is created on first save.
func NewOverrideStore(path string) *OverrideStore {
	return &OverrideStore{path: path}
}

// Load returns the overrides for group that are effective on the given
// date. Entries from other dates are kept on disk but excluded here. Read
// failures degrade to an empty set; the resolved day is still served.
func (s *OverrideStore) Load(group string, today time.Time) map[int]model.Override {
	out := make(map[int]model.Override)

	file, err := s.read()
	if err != nil {
		appLog.Error("override read failed; serving without overrides", err, "path", s.path)
		return out
	}

	todayKey := today.Format(model.DateLayout)
	for pairKey, o := range file[group] {
		if o.Date != todayKey {
			continue
		}
		pair, err := strconv.Atoi(pairKey)
		if err != nil || pair <= 0 {
			appLog.Error("override entry has bad pair key; skipping", nil, "pair", pairKey, "group", group)
			continue
		}
		out[pair] = model.Override{
			Pair:          pair,
			Subject:       o.Name,
			Room:          o.Cab,
			EffectiveDate: o.Date,
		}
	}
	return out
}

// Save upserts one pair's override for group, stamped with today's date.
// Unlike Load, write failures surface to the caller so the user can be
// told the override was not recorded.
func (s *OverrideStore) Save(group string, pair int, subject, room string, today time.Time) error {
	if pair <= 0 {
		return fmt.Errorf("%w: pair number must be positive, got %d", ErrPersistence, pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		// A corrupt file is unusable either way; start fresh rather than
		// refuse all future writes.
		appLog.Error("override file unreadable; rewriting from scratch", err, "path", s.path)
		file = make(overrideFile)
	}

	if file[group] == nil {
		file[group] = make(map[string]overrideJSON)
	}
	file[group][strconv.Itoa(pair)] = overrideJSON{
		Name: subject,
		Cab:  room,
		Date: today.Format(model.DateLayout),
	}

	return s.write(file)
}

func (s *OverrideStore) read() (overrideFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(overrideFile), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var file overrideFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decode overrides: %v", ErrPersistence, err)
	}
	if file == nil {
		file = make(overrideFile)
	}
	return file, nil
}

// write rewrites the whole file atomically (temp file + rename), matching
// how the config file is saved.
func (s *OverrideStore) write(file overrideFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, ".raspbot-overrides-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
