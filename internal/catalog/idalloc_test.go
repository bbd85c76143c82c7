package catalog

import (
	"fmt"
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func bookWithIDs(ids ...string) *domain.Book {
	return &domain.Book{ID: ids[0], BookIDs: ids, Title: "t-" + ids[0]}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name   string
		books  []*domain.Book
		prefix string
		want   string
	}{
		{
			name:   "empty catalog starts at one",
			books:  nil,
			prefix: "A",
			want:   "A0001",
		},
		{
			name: "extends past the max",
			books: []*domain.Book{
				bookWithIDs("C0001"),
				bookWithIDs("C0002"),
			},
			prefix: "C",
			want:   "C0003",
		},
		{
			name: "fills the lowest gap first",
			books: []*domain.Book{
				bookWithIDs("A0001"),
				bookWithIDs("A0003"),
			},
			prefix: "A",
			want:   "A0002",
		},
		{
			name: "fills the lowest gap among scattered numbers",
			books: []*domain.Book{
				bookWithIDs("C0001"),
				bookWithIDs("C0002"),
				bookWithIDs("C0005"),
				bookWithIDs("C0566"),
			},
			prefix: "C",
			want:   "C0003",
		},
		{
			name:   "unknown prefix starts its own sequence",
			books:  nil,
			prefix: "D",
			want:   "D0001",
		},
		{
			name: "other prefixes do not interfere",
			books: []*domain.Book{
				bookWithIDs("A0001"),
				bookWithIDs("B0001"),
			},
			prefix: "B",
			want:   "B0002",
		},
		{
			name: "prefix is case-insensitive",
			books: []*domain.Book{
				bookWithIDs("a0001"),
			},
			prefix: "a",
			want:   "A0002",
		},
		{
			name: "merged copy IDs count as taken",
			books: []*domain.Book{
				bookWithIDs("A0001", "A0002"),
			},
			prefix: "A",
			want:   "A0003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(tt.books, tt.prefix))
		})
	}
}

func TestNextID_NeverReturnsTakenID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numbers := rapid.SliceOfDistinct(rapid.IntRange(1, 50), rapid.ID[int]).Draw(t, "numbers")

		books := make([]*domain.Book, 0, len(numbers))
		taken := make(map[string]bool, len(numbers))
		for _, n := range numbers {
			id := fmt.Sprintf("A%04d", n)
			books = append(books, bookWithIDs(id))
			taken[id] = true
		}

		next := NextID(books, "A")
		if taken[next] {
			t.Fatalf("NextID returned taken ID %s", next)
		}
	})
}
