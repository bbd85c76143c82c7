package catalog

import (
	"strconv"
	"strings"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// Filter returns the books matching a free-text query and an optional exact
// genre. The query is a case-insensitive substring match over the title,
// every catalog ID, the year, and the genre label; empty query and genre
// match everything.
func Filter(books []*domain.Book, query string, genre domain.Genre) []*domain.Book {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]*domain.Book, 0, len(books))
	for _, book := range books {
		if genre != "" && book.Genre != genre {
			continue
		}
		if query != "" && !matchesQuery(book, query) {
			continue
		}
		out = append(out, book)
	}
	return out
}

func matchesQuery(book *domain.Book, query string) bool {
	if strings.Contains(strings.ToLower(book.Title), query) {
		return true
	}
	for _, id := range book.BookIDs {
		if strings.Contains(strings.ToLower(id), query) {
			return true
		}
	}
	if strings.Contains(strconv.Itoa(book.Year), query) {
		return true
	}
	return strings.Contains(book.Genre.Display(), query)
}
