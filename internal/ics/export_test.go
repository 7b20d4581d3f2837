package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raspbot/internal/model"
)

func exportFixture() model.BaselineTable {
	return model.BaselineTable{
		model.Wednesday: {
			model.VariantA: {
				1: {Pair: 1, Subject: "Математика", Teacher: "Иванов И.И.", Room: "101"},
			},
			model.VariantB: {
				2: {Pair: 2, Subject: "Физика", Room: "205"},
			},
		},
	}
}

func exportConfig() ExportConfig {
	return ExportConfig{
		Group:    "ИБ1-41",
		Location: time.UTC,
		PairTimes: map[int]string{
			1: "08:30-10:00",
			2: "10:10-11:40",
		},
		// 2025-02-05 is a Wednesday in ISO week 6.
		From: time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportBiweeklyRecurrence(t *testing.T) {
	out, err := Export(exportFixture(), exportConfig())
	require.NoError(t, err)

	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;INTERVAL=2")
	assert.Contains(t, out, "SUMMARY:Математика")
	assert.Contains(t, out, "SUMMARY:Физика")
	assert.Contains(t, out, "X-WR-CALNAME:Расписание ИБ1-41")
	assert.Contains(t, out, "Преподаватель: Иванов И.И.")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestExportAnchorsMatchVariantParity(t *testing.T) {
	out, err := Export(exportFixture(), exportConfig())
	require.NoError(t, err)

	// Week 6 is even, so variant A's first Wednesday is the one in week 7
	// (Feb 12) and variant B starts on Feb 5 itself.
	assert.Contains(t, out, "UID:raspbot-d2-v0-p1")
	assert.Contains(t, out, "DTSTART:20250212T083000Z")
	assert.Contains(t, out, "UID:raspbot-d2-v1-p2")
	assert.Contains(t, out, "DTSTART:20250205T101000Z")
}

func TestExportSkipsPairsWithoutSlot(t *testing.T) {
	table := model.BaselineTable{
		model.Monday: {
			model.VariantA: {
				5: {Pair: 5, Subject: "Факультатив", Room: "1"},
			},
		},
	}
	cfg := exportConfig()

	out, err := Export(table, cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestExportEmptyTable(t *testing.T) {
	out, err := Export(model.BaselineTable{}, exportConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestNextMatchingDate(t *testing.T) {
	from := time.Date(2025, time.February, 5, 12, 0, 0, 0, time.UTC)

	got := nextMatchingDate(from, model.Wednesday, model.VariantB)
	assert.Equal(t, 5, got.Day())

	got = nextMatchingDate(from, model.Wednesday, model.VariantA)
	assert.Equal(t, 12, got.Day())

	// The next Monday (Feb 10) falls in odd week 7, so variant B waits for
	// the Monday after that.
	got = nextMatchingDate(from, model.Monday, model.VariantB)
	assert.Equal(t, 17, got.Day())
}
