package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raspbot/internal/model"
)

const baselineFixture = `[
  {
    "Среда": {
      "числитель": {
        "1": {"name": "Математика", "teacher": "Иванов И.И.", "cab": "101"},
        "2": {"name": "Физика", "teacher": "Петров П.П.", "cab": "205"}
      },
      "знаменатель": {
        "3": {"name": "История", "teacher": "Сидорова А.А.", "cab": "310"}
      }
    }
  },
  {
    "Четверг": {
      "числитель": {
        "1": {"name": "Информатика", "teacher": "Козлов К.К.", "cab": "404"}
      },
      "знаменатель": {}
    }
  }
]`

func writeBaseline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadBaselineValid(t *testing.T) {
	s, err := LoadBaseline(writeBaseline(t, baselineFixture))
	require.NoError(t, err)

	day, err := s.Day(model.Wednesday, model.VariantA)
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, model.BaselineLesson{
		Pair:    2,
		Subject: "Физика",
		Teacher: "Петров П.П.",
		Room:    "205",
	}, day[2])
}

func TestLoadBaselineMissingFile(t *testing.T) {
	_, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestLoadBaselineRejectsBadData(t *testing.T) {
	cases := map[string]string{
		"not json":         `{{{`,
		"unknown day":      `[{"Блинсдень": {"числитель": {}}}]`,
		"unknown variant":  `[{"Среда": {"полузнаменатель": {}}}]`,
		"non-numeric pair": `[{"Среда": {"числитель": {"вторая": {"name": "x"}}}}]`,
		"zero pair":        `[{"Среда": {"числитель": {"0": {"name": "x"}}}}]`,
		"duplicate day":    `[{"Среда": {"числитель": {}}}, {"Среда": {"знаменатель": {}}}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBaseline(writeBaseline(t, content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPersistence))
		})
	}
}

func TestDayMissingIsDistinctFromEmpty(t *testing.T) {
	s, err := LoadBaseline(writeBaseline(t, baselineFixture))
	require.NoError(t, err)

	// No Sunday in the fixture at all.
	_, err = s.Day(model.Sunday, model.VariantA)
	assert.True(t, errors.Is(err, ErrBaselineMissing))

	// Thursday знаменатель exists but holds no lessons: a valid free day.
	day, err := s.Day(model.Thursday, model.VariantB)
	require.NoError(t, err)
	assert.Empty(t, day)
}

func TestDayReturnsCopy(t *testing.T) {
	s, err := LoadBaseline(writeBaseline(t, baselineFixture))
	require.NoError(t, err)

	day, err := s.Day(model.Wednesday, model.VariantA)
	require.NoError(t, err)
	day[1] = model.BaselineLesson{Pair: 1, Subject: "подмена"}

	again, err := s.Day(model.Wednesday, model.VariantA)
	require.NoError(t, err)
	assert.Equal(t, "Математика", again[1].Subject)
}
