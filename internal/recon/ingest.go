package recon

import (
	"strings"
	"unicode"

	"github.com/cshaw/projrecon/internal/domain"
)

// FieldKind selects which normalization a field receives.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldDate
	FieldBool
)

// FieldSpec declares one logical field of a sheet schema.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// Schema describes how one source sheet maps onto normalized records.
// KeyFields are tried in order; a row whose every key normalizes to empty or
// zero cannot be joined and is dropped.
type Schema struct {
	Type      SheetType
	KeyFields []string
	Fields    []FieldSpec
}

// TransactionSchema covers the project-transactions sheet (PT).
var TransactionSchema = Schema{
	Type:      SheetTransactions,
	KeyFields: []string{FieldActivitySeq, FieldProjectID},
	Fields: []FieldSpec{
		{FieldProjectID, FieldString},
		{FieldActivitySeq, FieldString},
		{FieldActivityDesc, FieldString},
		{FieldSubProject, FieldString},
		{FieldAccountDate, FieldDate},
		{FieldEmployeeID, FieldString},
		{FieldEmployeeName, FieldString},
		{FieldInternalQuantity, FieldNumber},
		{FieldInternalAmount, FieldNumber},
		{FieldSalesAmount, FieldNumber},
		{FieldInvoiceStatus, FieldString},
	},
}

// EstimateSchema covers the activity-estimates sheet (AE).
var EstimateSchema = Schema{
	Type:      SheetEstimates,
	KeyFields: []string{FieldActivitySeq},
	Fields: []FieldSpec{
		{FieldProjectID, FieldString},
		{FieldActivitySeq, FieldString},
		{FieldBudgetHours, FieldNumber},
		{FieldBudgetCost, FieldNumber},
		{FieldBudgetRevenue, FieldNumber},
	},
}

// ProjectSchema covers the project-master sheet (P).
var ProjectSchema = Schema{
	Type:      SheetProjects,
	KeyFields: []string{FieldProjectID},
	Fields: []FieldSpec{
		{FieldProjectID, FieldString},
		{FieldProjectName, FieldString},
		{FieldCustomer, FieldString},
		{FieldStatus, FieldString},
		{FieldTotalBudget, FieldNumber},
	},
}

// ProjectFilterRules suppress known junk rows in the project-master sheet.
// The defaults reproduce the filters observed in the source files; they are
// configuration, not pipeline logic, so deployments can adjust them without
// touching the ingestor.
type ProjectFilterRules struct {
	ExcludedStatuses       []string
	ExcludedSubstringPairs [][]string
	ExcludedLocationCodes  []string
	DropNumericIDs         bool
}

// DefaultProjectFilterRules returns the rule set matching the source data.
func DefaultProjectFilterRules() ProjectFilterRules {
	return ProjectFilterRules{
		ExcludedStatuses:       []string{"closed"},
		ExcludedSubstringPairs: [][]string{{"service", "line"}},
		ExcludedLocationCodes:  nil,
		DropNumericIDs:         true,
	}
}

// Excludes reports whether a project-master row should be suppressed.
func (r ProjectFilterRules) Excludes(rec domain.NormalizedRecord) bool {
	id := rec.String(FieldProjectID)
	name := rec.String(FieldProjectName)
	status := rec.String(FieldStatus)

	for _, excluded := range r.ExcludedStatuses {
		if strings.EqualFold(status, excluded) {
			return true
		}
	}
	for _, pair := range r.ExcludedSubstringPairs {
		if containsAll(strings.ToLower(id), pair) || containsAll(strings.ToLower(name), pair) {
			return true
		}
	}
	for _, code := range r.ExcludedLocationCodes {
		lowered := strings.ToLower(code)
		if strings.Contains(strings.ToLower(id), lowered) || strings.Contains(strings.ToLower(name), lowered) {
			return true
		}
	}
	if r.DropNumericIDs && id != "" && unicode.IsDigit(rune(id[0])) {
		return true
	}
	return false
}

func containsAll(s string, parts []string) bool {
	for _, part := range parts {
		if !strings.Contains(s, strings.ToLower(part)) {
			return false
		}
	}
	return len(parts) > 0
}

// sentinel markers are header-echo strings that appear as the first cell of
// structural filler rows in some file versions.
var sentinelMarkers = []string{"Invoiced"}

// IngestStats tallies rows absorbed by the structural checks. Dropped rows
// are diagnostics, never errors.
type IngestStats struct {
	TotalRows         int `json:"totalRows"`
	SentinelRows      int `json:"sentinelRows"`
	MissingKeyRows    int `json:"missingKeyRows"`
	FilteredRows      int `json:"filteredRows"`
	UnresolvedColumns int `json:"unresolvedColumns"`
	Ingested          int `json:"ingested"`
}

// Ingest converts a decoded sheet into normalized records using the schema's
// resolved column indexes. It is a pure function over its inputs.
//
// Rows at or above the sheet's header row are structural and skipped
// outright; sentinel rows and rows without a usable join key are counted and
// dropped. For the project-master schema the filter rules are applied last.
func Ingest(table domain.SheetTable, schema Schema, filters ProjectFilterRules) ([]domain.NormalizedRecord, IngestStats) {
	var stats IngestStats

	fieldNames := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		fieldNames[i] = f.Name
	}
	indexes := BuildIndexMap(table.Headers, fieldNames, schema.Type)
	// A field with no header match and no positional fallback reads as empty
	// on every row; the tally surfaces that instead of silently zeroing.
	stats.UnresolvedColumns = len(fieldNames) - len(indexes)

	var records []domain.NormalizedRecord
	for rowIdx, row := range table.Rows {
		if rowIdx <= table.HeaderRow {
			continue
		}
		stats.TotalRows++

		if len(row) == 0 || isSentinelRow(row, table.Headers) {
			stats.SentinelRows++
			continue
		}

		rec := make(domain.NormalizedRecord, len(schema.Fields))
		for _, field := range schema.Fields {
			idx, ok := indexes[field.Name]
			if !ok || idx >= len(row) {
				continue
			}
			cell := row[idx]
			switch field.Kind {
			case FieldNumber:
				rec[field.Name] = AsFloat(cell)
			case FieldDate:
				rec[field.Name] = AsTime(cell)
			case FieldBool:
				rec[field.Name] = AsBool(cell)
			default:
				rec[field.Name] = AsString(cell)
			}
		}

		if !hasUsableKey(rec, schema.KeyFields) {
			stats.MissingKeyRows++
			continue
		}

		if schema.Type == SheetProjects && filters.Excludes(rec) {
			stats.FilteredRows++
			continue
		}

		records = append(records, rec)
		stats.Ingested++
	}

	return records, stats
}

func isSentinelRow(row []domain.RawCell, headers []string) bool {
	first := strings.TrimSpace(AsString(row[0]))
	if first == "" {
		return false
	}
	for _, marker := range sentinelMarkers {
		if strings.EqualFold(first, marker) {
			return true
		}
	}
	// A row echoing the header row is filler left by pivot refreshes.
	return len(headers) > 0 && headers[0] != "" && first == headers[0]
}

func hasUsableKey(rec domain.NormalizedRecord, keyFields []string) bool {
	for _, key := range keyFields {
		value := strings.TrimSpace(rec.String(key))
		if value != "" && value != "0" {
			return true
		}
	}
	return false
}
