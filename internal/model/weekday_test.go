package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]Weekday{
		"Среда":        Wednesday,
		"среда":        Wednesday,
		" понедельник": Monday,
		"ВОСКРЕСЕНЬЕ":  Sunday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekday("блинсдень")
	require.Error(t, err)
	_, err = ParseWeekday("")
	require.Error(t, err)
}

func TestWeekdayOf(t *testing.T) {
	// 2025-02-03 is a Monday.
	monday := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, Weekday(i), WeekdayOf(monday.AddDate(0, 0, i)))
	}
}

func TestWeekdayLabel(t *testing.T) {
	assert.Equal(t, "Среда", Wednesday.Label())
	assert.Equal(t, "Воскресенье", Sunday.Label())
	assert.Equal(t, "Weekday(9)", Weekday(9).Label())
}

func TestParseVariant(t *testing.T) {
	got, err := ParseVariant("числитель")
	require.NoError(t, err)
	assert.Equal(t, VariantA, got)

	got, err = ParseVariant("ЗНАМЕНАТЕЛЬ")
	require.NoError(t, err)
	assert.Equal(t, VariantB, got)

	_, err = ParseVariant("смешанная")
	require.Error(t, err)
}

func TestVariantForWeek(t *testing.T) {
	// 2025-02-05 falls in ISO week 6 (even), 2025-02-12 in week 7 (odd).
	assert.Equal(t, VariantB, VariantForWeek(time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, VariantA, VariantForWeek(time.Date(2025, time.February, 12, 0, 0, 0, 0, time.UTC)))

	// ISO week numbering near year boundaries: 2024-12-30 belongs to week 1
	// of 2025.
	assert.Equal(t, VariantA, VariantForWeek(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)))
}
