package catalog

import (
	"sort"
	"strings"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/normalize"
)

// SortField selects the comparison field within a genre bucket.
type SortField string

// Sort fields accepted by the catalog view.
const (
	SortByTitle SortField = "title"
	SortByYear  SortField = "year"
	SortByID    SortField = "id"
)

// SortOrder selects ascending or descending comparison.
type SortOrder string

// Sort orders accepted by the catalog view.
const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Sorter orders catalogs for display. Genre buckets always come first in the
// fixed shelf order; the chosen field only breaks ties within a bucket.
type Sorter struct {
	titles *normalize.TitleComparator
}

// NewSorter creates a sorter with a zh-Hant title comparator.
func NewSorter() *Sorter {
	return &Sorter{titles: normalize.NewTitleComparator()}
}

// Sort returns a new slice ordered by genre bucket, then by the chosen field.
// The input is not modified.
func (s *Sorter) Sort(books []*domain.Book, field SortField, order SortOrder) []*domain.Book {
	out := make([]*domain.Book, len(books))
	copy(out, books)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ai, bi := a.Genre.BucketIndex(), b.Genre.BucketIndex(); ai != bi {
			return ai < bi
		}
		return s.less(a, b, field, order)
	})
	return out
}

// less compares two books within the same genre bucket.
func (s *Sorter) less(a, b *domain.Book, field SortField, order SortOrder) bool {
	var cmp int
	switch field {
	case SortByTitle:
		cmp = s.compareTitles(a.Title, b.Title)
	case SortByYear:
		switch {
		case a.Year < b.Year:
			cmp = -1
		case a.Year > b.Year:
			cmp = 1
		}
	default:
		cmp = strings.Compare(strings.ToLower(a.ID), strings.ToLower(b.ID))
	}

	if order == Descending {
		cmp = -cmp
	}
	return cmp < 0
}

// compareTitles compares by cleaned title stem first, so titles of one series
// cluster together, falling back to the full titles when the stems match.
func (s *Sorter) compareTitles(a, b string) int {
	if cmp := s.titles.Compare(normalize.CleanTitle(a), normalize.CleanTitle(b)); cmp != 0 {
		return cmp
	}
	return s.titles.Compare(a, b)
}

// GroupSeries rearranges an already filtered and sorted catalog so that books
// of the same series form contiguous blocks. A series is a group of two or
// more series candidates sharing a cleaned title stem; its members are ordered
// by full-title collation. Blocks are emitted in the order each stem was first
// encountered, not re-sorted by the chosen field. Singleton candidates and
// non-candidates follow in encounter order.
func (s *Sorter) GroupSeries(books []*domain.Book) []*domain.Book {
	groups := make(map[string][]*domain.Book)
	stemOrder := make([]string, 0)
	standalone := make([]*domain.Book, 0, len(books))

	for _, book := range books {
		stem := normalize.CleanTitle(book.Title)
		if normalize.HasSeriesMarkers(book.Title) && stem != "" {
			if _, ok := groups[stem]; !ok {
				stemOrder = append(stemOrder, stem)
			}
			groups[stem] = append(groups[stem], book)
			continue
		}
		standalone = append(standalone, book)
	}

	out := make([]*domain.Book, 0, len(books))
	for _, stem := range stemOrder {
		members := groups[stem]
		if len(members) < 2 {
			standalone = append(standalone, members...)
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return s.titles.Compare(members[i].Title, members[j].Title) < 0
		})
		out = append(out, members...)
	}
	return append(out, standalone...)
}
