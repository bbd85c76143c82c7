// Package catalog implements the catalog reconciliation core: merging raw
// candidate rows into deduplicated books, allocating catalog IDs, and
// ordering books for presentation.
package catalog

import (
	"fmt"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// Candidate is one validated (id, title) pair produced by ingestion.
type Candidate struct {
	ID    string
	Title string
	// Line is the 1-based source line the candidate came from, for error reporting.
	Line int
}

// Report aggregates the non-fatal outcome of an ingestion pass.
type Report struct {
	Succeeded int
	Failed    int
	Errors    []string
}

// AddError records one row-level failure.
func (r *Report) AddError(line int, format string, args ...any) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...)))
}

// Merge folds candidates into a fresh catalog. Two candidates merge into one
// book iff their titles are byte-identical; the first occurrence fixes the
// primary ID and the first-seen order of the resulting catalog. A repeated
// catalog ID under the same title is recorded as a row error and skipped.
//
// Merge always builds from empty; the caller replaces any prior catalog
// wholesale so re-ingestion never double-counts copies.
func Merge(candidates []Candidate, settings domain.Settings) ([]*domain.Book, Report) {
	var report Report
	byTitle := make(map[string]*domain.Book, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if existing, ok := byTitle[c.Title]; ok {
			if !existing.AddCopy(c.ID) {
				report.AddError(c.Line, "duplicate book ID (%s)", c.ID)
				continue
			}
			report.Succeeded++
			continue
		}

		byTitle[c.Title] = &domain.Book{
			ID:              c.ID,
			BookIDs:         []string{c.ID},
			Title:           c.Title,
			Genre:           domain.GenreFromID(c.ID),
			Year:            settings.DefaultYear,
			Copies:          1,
			AvailableCopies: 1,
		}
		order = append(order, c.Title)
		report.Succeeded++
	}

	books := make([]*domain.Book, 0, len(order))
	for _, title := range order {
		books = append(books, byTitle[title])
	}
	return books, report
}
