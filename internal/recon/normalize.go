package recon

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cshaw/projrecon/internal/domain"
)

// Cell normalization never fails: source spreadsheets are user-edited and
// routinely mix blanks, stray text and numbers within one column, so every
// coercion has a defensive fallback.

// AsString normalizes a cell for a text context. Empty cells yield "".
func AsString(c domain.RawCell) string {
	switch c.Kind {
	case domain.CellText:
		return c.Text
	case domain.CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case domain.CellInteger:
		return strconv.FormatInt(c.Integer, 10)
	case domain.CellBoolean:
		return strconv.FormatBool(c.Boolean)
	case domain.CellDateTime:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// AsFloat normalizes a cell for a numeric context. Empty cells and
// unparseable text yield 0; non-finite numbers collapse to 0.
func AsFloat(c domain.RawCell) float64 {
	switch c.Kind {
	case domain.CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return 0
		}
		return c.Number
	case domain.CellInteger:
		return float64(c.Integer)
	case domain.CellText:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		return 0
	case domain.CellBoolean:
		if c.Boolean {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsBool normalizes a cell for a boolean context.
func AsBool(c domain.RawCell) bool {
	switch c.Kind {
	case domain.CellBoolean:
		return c.Boolean
	case domain.CellText:
		return strings.EqualFold(strings.TrimSpace(c.Text), "true")
	case domain.CellNumber:
		return c.Number != 0
	case domain.CellInteger:
		return c.Integer != 0
	default:
		return false
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// AsTime normalizes a cell for a date context. Numeric cells are treated as
// Excel serial dates; text cells are tried against the known layouts. The
// zero time stands for "no date".
func AsTime(c domain.RawCell) time.Time {
	switch c.Kind {
	case domain.CellDateTime:
		return c.Time
	case domain.CellNumber:
		return excelSerialToTime(c.Number)
	case domain.CellInteger:
		return excelSerialToTime(float64(c.Integer))
	case domain.CellText:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(c.Text)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// excelSerialToTime converts an Excel serial day number to UTC time.
// Serial 1 is 1900-01-01; the epoch below absorbs Excel's leap-year bug.
func excelSerialToTime(serial float64) time.Time {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}
	}
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := int(serial)
	frac := serial - float64(days)
	return epoch.AddDate(0, 0, days).Add(time.Duration(frac * 24 * float64(time.Hour)))
}
