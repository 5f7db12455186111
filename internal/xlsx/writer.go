package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellUpdate addresses one cell of a sheet by 1-based row and 0-based column,
// with the replacement value as entered by the user.
type CellUpdate struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Value  string `json:"value"`
	Header string `json:"header,omitempty"`
}

// ApplyCellUpdates writes a batch of cell updates back to a workbook sheet
// and saves the file in place. Each value string is parsed the same way a
// spreadsheet parses user input: number first, then boolean, then empty,
// otherwise text.
func ApplyCellUpdates(path, sheetName string, updates []CellUpdate) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	found := false
	for _, name := range f.GetSheetList() {
		if name == sheetName {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("sheet %s not found in %s", sheetName, path)
	}

	for _, update := range updates {
		if update.Row < 1 || update.Column < 0 {
			return fmt.Errorf("cell update out of range: row %d column %d", update.Row, update.Column)
		}
		cell, err := excelize.CoordinatesToCellName(update.Column+1, update.Row)
		if err != nil {
			return fmt.Errorf("invalid cell coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, parseUpdateValue(update.Value)); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func parseUpdateValue(value string) any {
	if num, err := strconv.ParseFloat(value, 64); err == nil {
		return num
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if value == "" {
		return nil
	}
	return value
}
