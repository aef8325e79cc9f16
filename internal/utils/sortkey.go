package utils

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// SortKey returns the display ordering key of a title: case folded, with a
// leading "The " dropped so "The Tatami Galaxy" sorts under T for Tatami.
func SortKey(title string) string {
	key := cases.Fold().String(strings.TrimSpace(title))
	return strings.TrimPrefix(key, "the ")
}

// FormatPosition renders a season/episode pair as S2E12
func FormatPosition(season, episode int) string {
	return fmt.Sprintf("S%dE%d", season, episode)
}
