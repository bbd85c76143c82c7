package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
)

// NextID computes the smallest unused catalog ID under the given prefix,
// zero-padded to four digits. Gaps in the numbered sequence are filled before
// the sequence is extended. The scan ranges over every catalog ID of every
// book, primary and merged alike, and is case-insensitive on the prefix.
func NextID(books []*domain.Book, prefix string) string {
	prefix = strings.ToUpper(prefix)
	used := make(map[string]bool)
	maxNumber := 0
	found := false

	collect := func(id string) {
		idStr := strings.ToUpper(strings.TrimSpace(id))
		if idStr == "" || !strings.HasPrefix(idStr, prefix) {
			return
		}
		num, err := strconv.Atoi(idStr[len(prefix):])
		if err != nil {
			return
		}
		used[idStr] = true
		found = true
		if num > maxNumber {
			maxNumber = num
		}
	}

	for _, book := range books {
		collect(book.ID)
		for _, id := range book.BookIDs {
			collect(id)
		}
	}

	if !found {
		return fmt.Sprintf("%s%04d", prefix, 1)
	}

	// i = maxNumber+1 can never be in the used set, so this always returns.
	for i := 1; i <= maxNumber+1; i++ {
		candidate := fmt.Sprintf("%s%04d", prefix, i)
		if !used[candidate] {
			return candidate
		}
	}
	return fmt.Sprintf("%s%04d", prefix, maxNumber+1)
}
