// Package source implements the timetable-page provider: an HTTP fetch with
// bounded retry and an HTML extraction step that reduces the page to the
// structures the resolution engine consumes.
package source

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable marks network-level failure: the page could not be
	// retrieved within the timeout/retry budget.
	ErrUnavailable = errors.New("source unavailable")
	// ErrUnparsable marks markup-level failure: a page was retrieved but
	// carries none of the expected structures.
	ErrUnparsable = errors.New("source unparsable")
)

// Row is one substitution table row, reduced to the fields the engine
// consumes. Pairs is the raw pair-number field ("2", "2-4" or "2,5").
type Row struct {
	Group   string
	Pairs   string
	Subject string
	Room    string
}

// Snapshot is the structured content of one successful page fetch. The
// engine treats everything in it as captured at the same instant.
type Snapshot struct {
	// DeclaredDate is the full text of the marker line carrying the
	// date declaration ("... в расписании на 5 февраля 2025 года / среда").
	// Empty when the page carries no such line.
	DeclaredDate string

	// Markers holds the text of every centered marker region in document
	// order; the week-variant keyword is searched here.
	Markers []string

	// HasTable reports whether the page carried a substitution table at
	// all. A present table with zero matching rows means "no substitutions
	// today"; a missing table means the substitution data is unusable.
	HasTable bool
	Rows     []Row

	FetchedAt time.Time
}

// Provider fetches one snapshot of the timetable page.
type Provider interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}
