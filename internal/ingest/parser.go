// Package ingest turns raw catalog exports into merge candidates: it parses
// the fixed-layout CSV, validates row shape and catalog IDs, and collects
// row-level failures without ever aborting a pass.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shelfkeeper/shelfkeeper-server/internal/catalog"
	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// catalogHeaderRows is the number of leading header/metadata rows in the
// collection export. Fixed by the export layout, not configurable.
const catalogHeaderRows = 4

// ParseCatalog reads a collection export and yields merge candidates plus a
// row-level report. The first 4 physical lines are always skipped. A row is
// rejected (reported, never fatal) when its first field is missing or is not
// a valid catalog ID; a row with a valid ID but an empty title is dropped
// silently. Line numbers in the report are 1-based source lines.
func ParseCatalog(r io.Reader) ([]catalog.Candidate, catalog.Report, error) {
	var (
		candidates []catalog.Candidate
		report     catalog.Report
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if line <= catalogHeaderRows {
			continue
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Split(text, ",")
		id := strings.TrimSpace(fields[0])
		if id == "" {
			report.AddError(line, "missing book ID")
			continue
		}
		if !domain.ValidBookID(id) {
			report.AddError(line, "malformed book ID (%s)", id)
			continue
		}

		title := ""
		if len(fields) > 1 {
			title = strings.TrimSpace(fields[1])
		}
		if title == "" {
			// No title, nothing to catalog. Not an error.
			continue
		}

		candidates = append(candidates, catalog.Candidate{ID: id, Title: title, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, report, fmt.Errorf("read catalog source: %w", err)
	}

	return candidates, report, nil
}

// ParseImport converts manually imported spreadsheet rows into new books.
// Unlike ParseCatalog this skips exactly one header row, honors an optional
// third copies column, and creates one book per row without title merging;
// rows whose primary ID already exists (in the live catalog or earlier in the
// batch) are rejected. The caller appends the result to the current catalog.
func ParseImport(rows [][]string, existingIDs map[string]bool, settings domain.Settings) ([]*domain.Book, catalog.Report) {
	var (
		books  []*domain.Book
		report catalog.Report
	)

	taken := make(map[string]bool, len(existingIDs))
	for id := range existingIDs {
		taken[id] = true
	}

	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		line := i + 1

		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		id := strings.TrimSpace(row[0])
		if !domain.ValidBookID(id) {
			report.AddError(line, "malformed book ID (%s)", id)
			continue
		}
		if taken[id] {
			report.AddError(line, "duplicate book ID (%s)", id)
			continue
		}

		title := ""
		if len(row) > 1 {
			title = strings.TrimSpace(row[1])
		}
		if title == "" {
			report.AddError(line, "missing title")
			continue
		}

		copies := settings.DefaultCopies
		if len(row) > 2 {
			if n, err := strconv.Atoi(strings.TrimSpace(row[2])); err == nil && n > 0 {
				copies = n
			}
		}

		taken[id] = true
		books = append(books, &domain.Book{
			ID:              id,
			BookIDs:         []string{id},
			Title:           title,
			Genre:           domain.GenreFromID(id),
			Year:            settings.DefaultYear,
			Copies:          copies,
			AvailableCopies: copies,
		})
		report.Succeeded++
	}

	return books, report
}
