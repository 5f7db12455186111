package domain

import "time"

// CellKind discriminates the RawCell union.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellInteger
	CellBoolean
	CellDateTime
)

// RawCell is a tagged cell value produced by the spreadsheet reader. Exactly
// one value field is meaningful, selected by Kind; consumers must switch on
// Kind rather than probe fields.
type RawCell struct {
	Kind    CellKind  `json:"kind"`
	Text    string    `json:"text,omitempty"`
	Number  float64   `json:"number,omitempty"`
	Integer int64     `json:"integer,omitempty"`
	Boolean bool      `json:"boolean,omitempty"`
	Time    time.Time `json:"time,omitempty"`
}

func EmptyCell() RawCell                 { return RawCell{Kind: CellEmpty} }
func TextCell(s string) RawCell          { return RawCell{Kind: CellText, Text: s} }
func NumberCell(f float64) RawCell       { return RawCell{Kind: CellNumber, Number: f} }
func IntegerCell(i int64) RawCell        { return RawCell{Kind: CellInteger, Integer: i} }
func BoolCell(b bool) RawCell            { return RawCell{Kind: CellBoolean, Boolean: b} }
func DateTimeCell(t time.Time) RawCell   { return RawCell{Kind: CellDateTime, Time: t} }

// IsEmpty reports whether the cell carries no value.
func (c RawCell) IsEmpty() bool { return c.Kind == CellEmpty }

// SheetTable is one decoded workbook tab. Headers come from the header row
// the reader selected for the sheet type; HeaderRow records that selection
// (0-based) so column offsets stay consistent downstream.
type SheetTable struct {
	SheetName string      `json:"sheetName"`
	Headers   []string    `json:"headers"`
	Rows      [][]RawCell `json:"rows"`
	HeaderRow int         `json:"headerRow"`
}
