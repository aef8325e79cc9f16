// Package export writes the title listing as a spreadsheet
package export

import (
	"fmt"
	"io"

	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the listing
const SheetName = "Anime"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet
var Header = []string{"ID", "Title", "Completion", "Last Episode", "Source", "Release Date", "Rating", "Priority", "Partners", "Notes", "Review"}

// WriteTitles writes one row per title, in the given order, to w as xlsx
func WriteTitles(w io.Writer, titles []controllers.TitleSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, name := range Header {
		if err := setCell(f, col+1, 1, name); err != nil {
			return err
		}
	}

	for i, title := range titles {
		row := i + 2
		var rating any
		if title.Rating != nil {
			rating = *title.Rating
		}
		values := []any{
			title.ID,
			title.Title,
			title.Completion.String(),
			title.LastEpisode,
			title.Source,
			title.ReleaseDate,
			rating,
			title.Priority,
			len(title.WatchPartners),
			title.Notes,
			title.Review,
		}
		for col, value := range values {
			if value == nil {
				continue
			}
			if err := setCell(f, col+1, row, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
