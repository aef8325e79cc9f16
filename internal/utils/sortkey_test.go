package utils

import (
	"sort"
	"testing"
)

func TestSortKey(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Tatami Galaxy", "tatami galaxy"},
		{"THE Promised Neverland", "promised neverland"},
		{"Theresia", "theresia"},
		{"  The Apothecary Diaries", "apothecary diaries"},
		{"Mushishi", "mushishi"},
		{"The", "the"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := SortKey(tt.title); got != tt.want {
				t.Errorf("SortKey(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSortKeyOrdering(t *testing.T) {
	titles := []string{"Zetman", "The Big O", "akira", "Berserk"}
	sort.Slice(titles, func(i, j int) bool {
		return SortKey(titles[i]) < SortKey(titles[j])
	})

	want := []string{"akira", "Berserk", "The Big O", "Zetman"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", titles, want)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	if got := FormatPosition(2, 12); got != "S2E12" {
		t.Errorf("FormatPosition(2, 12) = %q", got)
	}
}
