// Package domain contains the core business entities for the Shelfkeeper catalog and loan ledger.
package domain

import (
	"regexp"
	"strings"
)

// BookIDPattern is the catalog ID format: a genre prefix letter followed by digits.
var BookIDPattern = regexp.MustCompile(`^[A-Ca-c][0-9]+$`)

// Genre classifies a book by the reading level its catalog prefix encodes.
type Genre string

// Genres in shelf order.
const (
	GenrePictureBook Genre = "picture_book"
	GenreBridgeBook  Genre = "bridge_book"
	GenreTextBook    Genre = "text_book"
	GenreUnknown     Genre = "unknown"
)

// genreOrder is the fixed display bucket order. Unknown sorts after all listed genres.
var genreOrder = []Genre{GenrePictureBook, GenreBridgeBook, GenreTextBook}

// Display returns the genre label shown to readers.
func (g Genre) Display() string {
	switch g {
	case GenrePictureBook:
		return "繪本"
	case GenreBridgeBook:
		return "橋梁書"
	case GenreTextBook:
		return "文字書"
	default:
		return "未知"
	}
}

// BucketIndex returns the genre's position in the fixed display order.
// Unknown (and anything unlisted) sorts after every listed genre.
func (g Genre) BucketIndex() int {
	for i, o := range genreOrder {
		if g == o {
			return i
		}
	}
	return len(genreOrder)
}

// GenreFromID derives the genre from a catalog ID's prefix letter.
func GenreFromID(id string) Genre {
	if id == "" {
		return GenreUnknown
	}
	switch strings.ToUpper(id[:1]) {
	case "A":
		return GenrePictureBook
	case "B":
		return GenreBridgeBook
	case "C":
		return GenreTextBook
	default:
		return GenreUnknown
	}
}

// GenreFromDisplay parses a reader-facing genre label back to its Genre.
func GenreFromDisplay(label string) Genre {
	switch strings.TrimSpace(label) {
	case "繪本":
		return GenrePictureBook
	case "橋梁書":
		return GenreBridgeBook
	case "文字書":
		return GenreTextBook
	default:
		return GenreUnknown
	}
}

// ValidBookID reports whether id matches the catalog ID format.
func ValidBookID(id string) bool {
	return BookIDPattern.MatchString(id)
}

// Book is one distinct title in the catalog, tracking one or more physical copies.
type Book struct {
	// ID is the primary catalog ID. It is always a member of BookIDs.
	ID string `json:"id"`
	// BookIDs lists every catalog ID folded into this title, primary included.
	BookIDs  []string `json:"bookIds"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	CoverURL string   `json:"coverUrl,omitempty"`
	Genre    Genre    `json:"genre"`
	Year     int      `json:"year"`
	Copies   int      `json:"copies"`
	// AvailableCopies is always within [0, Copies].
	AvailableCopies int `json:"availableCopies"`
}

// HasBookID reports whether id is one of the book's catalog IDs.
func (b *Book) HasBookID(id string) bool {
	for _, existing := range b.BookIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// AddCopy folds another physical copy (by catalog ID) into the book.
// Reports false if the ID is already present.
func (b *Book) AddCopy(id string) bool {
	if b.HasBookID(id) {
		return false
	}
	b.BookIDs = append(b.BookIDs, id)
	b.Copies++
	b.AvailableCopies++
	return true
}
