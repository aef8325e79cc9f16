package export

import (
	"bytes"
	"testing"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/xuri/excelize/v2"
)

func TestWriteTitles(t *testing.T) {
	rating := 4
	titles := []controllers.TitleSummary{
		{ID: 7, Title: "Akira", Completion: completion.TierComplete, LastEpisode: "S1E1", Source: "Manga", ReleaseDate: "1988-07-16", Rating: &rating, Priority: 2, WatchPartners: []uint64{1, 2}},
		{ID: 3, Title: "The Big O", Completion: completion.TierStarted, LastEpisode: "S2E13", Source: "Original", Notes: "rewatch s1"},
	}

	var buf bytes.Buffer
	if err := WriteTitles(&buf, titles); err != nil {
		t.Fatalf("WriteTitles() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "ID"},
		{"C1", "Completion"},
		{"A2", "7"},
		{"B2", "Akira"},
		{"C2", "Complete"},
		{"D2", "S1E1"},
		{"G2", "4"},
		{"I2", "2"},
		{"B3", "The Big O"},
		{"C3", "Started"},
		{"G3", ""},
		{"J3", "rewatch s1"},
	}

	for _, tt := range tests {
		got, err := f.GetCellValue(SheetName, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("cell %s = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestWriteTitlesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTitles(&buf, nil); err != nil {
		t.Fatalf("WriteTitles() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != len(Header) {
		t.Errorf("rows = %v, want only the header", rows)
	}
}
