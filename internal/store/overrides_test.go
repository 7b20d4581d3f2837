package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overrideGroup = "ИБ1-41"

func overrideDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func TestOverrideRoundtrip(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.json"))
	today := overrideDay(t, "2025-02-05")

	require.NoError(t, s.Save(overrideGroup, 3, "Литература", "210", today))

	got := s.Load(overrideGroup, today)
	require.Len(t, got, 1)
	assert.Equal(t, "Литература", got[3].Subject)
	assert.Equal(t, "210", got[3].Room)
	assert.Equal(t, "2025-02-05", got[3].EffectiveDate)
}

func TestOverrideStaleEntriesExcludedButKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	s := NewOverrideStore(path)

	require.NoError(t, s.Save(overrideGroup, 2, "Старое", "100", overrideDay(t, "2025-02-04")))
	require.NoError(t, s.Save(overrideGroup, 3, "Новое", "200", overrideDay(t, "2025-02-05")))

	got := s.Load(overrideGroup, overrideDay(t, "2025-02-05"))
	require.Len(t, got, 1)
	assert.Equal(t, "Новое", got[3].Subject)

	// The stale entry is filtered, not erased.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var file map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Len(t, file[overrideGroup], 2)
}

func TestOverrideSaveReplacesSamePair(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.json"))
	today := overrideDay(t, "2025-02-05")

	require.NoError(t, s.Save(overrideGroup, 2, "Первая версия", "100", today))
	require.NoError(t, s.Save(overrideGroup, 2, "Вторая версия", "200", today))

	got := s.Load(overrideGroup, today)
	require.Len(t, got, 1)
	assert.Equal(t, "Вторая версия", got[2].Subject)
}

func TestOverrideLoadMissingFile(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "absent.json"))
	assert.Empty(t, s.Load(overrideGroup, overrideDay(t, "2025-02-05")))
}

func TestOverrideLoadCorruptFileDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	require.NoError(t, os.WriteFile(path, []byte("не json"), 0o600))

	s := NewOverrideStore(path)
	assert.Empty(t, s.Load(overrideGroup, overrideDay(t, "2025-02-05")))
}

func TestOverrideSaveRejectsBadPair(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.json"))
	err := s.Save(overrideGroup, 0, "x", "y", overrideDay(t, "2025-02-05"))
	require.Error(t, err)
}

func TestOverrideGroupsDoNotMix(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.json"))
	today := overrideDay(t, "2025-02-05")

	require.NoError(t, s.Save("ИБ1-41", 1, "Математика", "101", today))
	require.NoError(t, s.Save("ТМ2-11", 1, "Химия", "303", today))

	got := s.Load("ИБ1-41", today)
	require.Len(t, got, 1)
	assert.Equal(t, "Математика", got[1].Subject)
}

func TestOverrideConcurrentSaves(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.json"))
	today := overrideDay(t, "2025-02-05")

	var wg sync.WaitGroup
	for pair := 1; pair <= 6; pair++ {
		wg.Add(1)
		go func(pair int) {
			defer wg.Done()
			assert.NoError(t, s.Save(overrideGroup, pair, "Предмет", "111", today))
		}(pair)
	}
	wg.Wait()

	assert.Len(t, s.Load(overrideGroup, today), 6)
}
