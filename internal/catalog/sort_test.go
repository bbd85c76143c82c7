package catalog

import (
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func book(id, title string, year int) *domain.Book {
	return &domain.Book{
		ID:      id,
		BookIDs: []string{id},
		Title:   title,
		Genre:   domain.GenreFromID(id),
		Year:    year,
	}
}

func titlesOf(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestSort_GenreBucketsComeFirst(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("C0001", "text", 2020),
		book("A0001", "picture", 2020),
		{ID: "Z0001", BookIDs: []string{"Z0001"}, Title: "unknown", Genre: domain.GenreUnknown},
		book("B0001", "bridge", 2020),
	}

	sorted := s.Sort(books, SortByID, Ascending)

	assert.Equal(t, []string{"picture", "bridge", "text", "unknown"}, titlesOf(sorted))
}

func TestSort_InputNotModified(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("C0001", "text", 2020),
		book("A0001", "picture", 2020),
	}

	_ = s.Sort(books, SortByID, Ascending)

	assert.Equal(t, "text", books[0].Title)
}

func TestSort_ByYearWithinBucket(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("A0001", "newest", 2024),
		book("A0002", "oldest", 2019),
		book("A0003", "middle", 2021),
	}

	asc := s.Sort(books, SortByYear, Ascending)
	assert.Equal(t, []string{"oldest", "middle", "newest"}, titlesOf(asc))

	desc := s.Sort(books, SortByYear, Descending)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, titlesOf(desc))
}

func TestSort_ByIDIsCaseInsensitive(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("a0002", "second", 2020),
		book("A0001", "first", 2020),
		book("a0003", "third", 2020),
	}

	sorted := s.Sort(books, SortByID, Ascending)
	assert.Equal(t, []string{"first", "second", "third"}, titlesOf(sorted))
}

func TestSort_ByTitleClustersSeriesStems(t *testing.T) {
	// Title sort compares cleaned stems first, so decorated volumes of one
	// series sit next to each other even when their raw titles would not.
	s := NewSorter()
	books := []*domain.Book{
		book("A0001", "abc2", 2020),
		book("A0002", "xyz", 2020),
		book("A0003", "abc1", 2020),
	}

	sorted := s.Sort(books, SortByTitle, Ascending)
	assert.Equal(t, []string{"abc1", "abc2", "xyz"}, titlesOf(sorted))
}

func TestGroupSeries(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("B0001", "神奇樹屋2", 2020),
		book("A0001", "小王子", 2020),
		book("B0002", "神奇樹屋1", 2020),
		book("C0001", "屁屁偵探5", 2020),
	}

	grouped := s.GroupSeries(books)

	require.Len(t, grouped, 4)
	// The series block leads in encounter order, members sorted by full
	// title; the lone decorated title and the plain title trail behind.
	assert.Equal(t, []string{"神奇樹屋1", "神奇樹屋2", "小王子", "屁屁偵探5"}, titlesOf(grouped))
}

func TestGroupSeries_NoSeriesLeavesOrderAlone(t *testing.T) {
	s := NewSorter()
	books := []*domain.Book{
		book("A0001", "小王子", 2020),
		book("A0002", "好餓的毛毛蟲", 2020),
	}

	grouped := s.GroupSeries(books)
	assert.Equal(t, []string{"小王子", "好餓的毛毛蟲"}, titlesOf(grouped))
}
