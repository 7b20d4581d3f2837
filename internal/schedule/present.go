package schedule

import (
	"fmt"
	"strings"

	"raspbot/internal/model"
)

const lineSeparator = "―――――――――――――――――――"

// FormatDay renders a resolution into display-ready lines, in the order
// fixed by the merge (pair-2 banner first when present, then the ascending
// sweep). Source tags drive the markers: 📘 baseline, 🔄 substitution and
// override, plus the ⚠️ banner for the highlighted pair.
func FormatDay(res *model.Resolution) []string {
	lines := []string{
		fmt.Sprintf("%s, неделя: %s", res.Weekday.Label(), capitalize(res.Variant.Label())),
		"",
	}

	if res.Day.Empty() {
		lines = append(lines, "Занятий нет")
		return lines
	}

	for _, p := range res.Day.Pairs {
		if p.Highlight {
			lines = append(lines,
				fmt.Sprintf("⚠️ ВНИМАНИЕ! Замена %d пары:", p.Pair),
				fmt.Sprintf("🔄 Пара %d: %s", p.Pair, p.Subject),
				fmt.Sprintf("Кабинет: %s", p.Room),
				lineSeparator,
			)
			continue
		}
		switch p.Source {
		case model.SourceBaseline:
			lines = append(lines,
				fmt.Sprintf("📘 Пара %d: %s", p.Pair, p.Subject),
				fmt.Sprintf("Преподаватель: %s", p.Teacher),
				fmt.Sprintf("Кабинет: %s", p.Room),
				lineSeparator,
			)
		default:
			lines = append(lines,
				fmt.Sprintf("🔄 Пара %d: %s", p.Pair, p.Subject),
				fmt.Sprintf("Кабинет: %s", p.Room),
				lineSeparator,
			)
		}
	}

	if !res.RefreshedAt.IsZero() {
		lines = append(lines, "", fmt.Sprintf("🔄 Данные обновлены: %s", res.RefreshedAt.Format("15:04:05")))
	}

	return lines
}

// capitalize upper-cases the first rune; the week keyword is stored
// lowercase but displayed capitalized.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
