// Package normalize reduces book titles to comparison keys by stripping
// series and volume decoration, and provides locale-aware title comparison.
package normalize

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Decoration patterns, applied in sequence by CleanTitle.
//
//nolint:gochecknoglobals // Static pattern table for title normalization
var (
	// Parenthetical groups, half- or full-width.
	parenthetical = regexp.MustCompile(`[（(].*?[）)]`)
	// A run of digits and everything after it.
	trailingDigits = regexp.MustCompile(`[0-9]+.*$`)
	// 第…卷 / 冊 / 部 / 集 volume markers.
	volumeMarker = regexp.MustCompile(`第.*?[卷冊部集]`)
	// 上 / 下 / 中 part markers and everything after.
	partMarker = regexp.MustCompile(`[上下中].*$`)
	// 全 (complete set) and everything after.
	setMarker = regexp.MustCompile(`全.*$`)
	// Embedded CJK numerals.
	cjkNumerals = regexp.MustCompile(`[一二三四五六七八九十百千萬]+`)
	// Embedded Roman numerals.
	romanNumerals = regexp.MustCompile(`[IVXLC]+`)

	// seriesMarkers matches any decoration that makes a title a series candidate.
	seriesMarkers = regexp.MustCompile(`[（(].*?[）)]|[0-9]+.*$|第.*?[卷冊部集]|[上下中].*$|全.*$`)
)

// CleanTitle strips series and volume decoration from a title, yielding the
// stem used as a sort tie-break key and as the series grouping key.
func CleanTitle(title string) string {
	s := parenthetical.ReplaceAllString(title, "")
	s = trailingDigits.ReplaceAllString(s, "")
	s = volumeMarker.ReplaceAllString(s, "")
	s = partMarker.ReplaceAllString(s, "")
	s = setMarker.ReplaceAllString(s, "")
	s = cjkNumerals.ReplaceAllString(s, "")
	s = romanNumerals.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// HasSeriesMarkers reports whether the title carries any of the decoration
// patterns CleanTitle strips, making it a series candidate.
func HasSeriesMarkers(title string) bool {
	return seriesMarkers.MatchString(title)
}

// TitleComparator compares titles with Traditional Chinese collation.
// The underlying collator is stateful, so comparisons are serialized.
type TitleComparator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewTitleComparator creates a comparator for zh-Hant titles.
func NewTitleComparator() *TitleComparator {
	return &TitleComparator{c: collate.New(language.TraditionalChinese)}
}

// Compare returns -1, 0, or 1 per collation order of a and b.
func (tc *TitleComparator) Compare(a, b string) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.c.CompareString(a, b)
}
