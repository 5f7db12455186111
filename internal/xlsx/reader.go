package xlsx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cshaw/projrecon/internal/domain"

	"github.com/xuri/excelize/v2"
)

// FileReader adapts ReadWorkbook to the pipeline's Reader interface.
type FileReader struct{}

// Read decodes the workbook at path.
func (FileReader) Read(ctx context.Context, path string) ([]domain.SheetTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadWorkbook(path)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"01-02-06",
	"1/2/06 15:04",
}

// ReadWorkbook decodes every sheet of an xlsx workbook into a SheetTable.
// Header row selection depends on the sheet type: "pipeline" sheets keep
// their headers in row 11, "program" sheets (other than vacation trackers)
// in row 3, everything else in row 1. Vacation sheets carry no usable header
// row and get synthetic Col{i} headers instead.
func ReadWorkbook(path string) ([]domain.SheetTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var tables []domain.SheetTable
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		tables = append(tables, buildTable(sheetName, rows))
	}
	return tables, nil
}

func buildTable(sheetName string, rows [][]string) domain.SheetTable {
	headerRow := headerRowIndex(sheetName)

	table := domain.SheetTable{
		SheetName: sheetName,
		HeaderRow: headerRow,
		Rows:      make([][]domain.RawCell, 0, len(rows)),
	}

	lower := strings.ToLower(sheetName)
	vacation := strings.Contains(lower, "vacation")

	for idx, row := range rows {
		cells := make([]domain.RawCell, len(row))
		for col, value := range row {
			cells[col] = ParseCell(value)
		}
		table.Rows = append(table.Rows, cells)

		if idx == headerRow && !vacation {
			table.Headers = headerStrings(cells)
		}
	}

	if vacation && len(table.Headers) == 0 && len(table.Rows) > 0 {
		table.Headers = make([]string, len(table.Rows[0]))
		for i := range table.Headers {
			table.Headers[i] = fmt.Sprintf("Col%d", i)
		}
	}

	return table
}

func headerRowIndex(sheetName string) int {
	lower := strings.ToLower(sheetName)
	switch {
	case strings.Contains(lower, "pipeline"):
		return 10
	case strings.Contains(lower, "program") && !strings.Contains(lower, "vacation"):
		return 2
	default:
		return 0
	}
}

func headerStrings(cells []domain.RawCell) []string {
	headers := make([]string, len(cells))
	for i, cell := range cells {
		switch cell.Kind {
		case domain.CellText:
			headers[i] = cell.Text
		case domain.CellNumber:
			headers[i] = strconv.FormatFloat(cell.Number, 'f', -1, 64)
		case domain.CellInteger:
			headers[i] = strconv.FormatInt(cell.Integer, 10)
		}
	}
	return headers
}

// ParseCell converts one raw cell string into its tagged value. Integers are
// tried before floats, then booleans and the known date layouts; anything
// else stays text. Blank cells are Empty.
func ParseCell(value string) domain.RawCell {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return domain.EmptyCell()
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return domain.IntegerCell(i)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return domain.NumberCell(f)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return domain.BoolCell(true)
	case "false":
		return domain.BoolCell(false)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return domain.DateTimeCell(t)
		}
	}
	return domain.TextCell(trimmed)
}
