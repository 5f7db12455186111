package domain

import "time"

// NormalizedRecord maps logical field names to already-normalized scalars
// (string, float64, bool or time.Time). Records are transient: produced per
// row by the ingestor and consumed immediately by the join step.
type NormalizedRecord map[string]any

// String returns the field as a string, or "" when absent or non-string.
func (r NormalizedRecord) String(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Float returns the field as a float64, or 0 when absent or non-numeric.
func (r NormalizedRecord) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Time returns the field as a time.Time, or the zero time when absent.
func (r NormalizedRecord) Time(field string) time.Time {
	if v, ok := r[field].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Has reports whether the field was resolved for this record.
func (r NormalizedRecord) Has(field string) bool {
	_, ok := r[field]
	return ok
}
