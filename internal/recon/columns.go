package recon

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetType identifies which source table a sheet holds, which selects the
// static column fallbacks used when headers cannot be matched.
type SheetType string

const (
	SheetTransactions SheetType = "transactions"
	SheetEstimates    SheetType = "estimates"
	SheetProjects     SheetType = "projects"
)

// Logical field names. These double as the substring patterns matched
// against sheet headers, so they use the human wording of the source files.
const (
	FieldProjectID        = "Project ID"
	FieldProjectName      = "Project Name"
	FieldCustomer         = "Customer"
	FieldStatus           = "Status"
	FieldTotalBudget      = "Total Budget"
	FieldActivitySeq      = "Activity Seq"
	FieldActivityDesc     = "Activity Description"
	FieldSubProject       = "Sub Project Description"
	FieldAccountDate      = "Account Date"
	FieldEmployeeID       = "Employee ID"
	FieldEmployeeName     = "Employee Name"
	FieldInternalQuantity = "Internal Quantity"
	FieldInternalAmount   = "Internal Amount"
	FieldSalesAmount      = "Sales Amount"
	FieldInvoiceStatus    = "Invoice Status"
	FieldBudgetHours      = "Budget Hours"
	FieldBudgetCost       = "Budget Cost"
	FieldBudgetRevenue    = "Budget Revenue"
)

// fallbackColumns maps known sheet types to the column letters each field
// occupies in the file versions whose headers do not match at all.
var fallbackColumns = map[SheetType]map[string]string{
	SheetTransactions: {
		FieldProjectID:        "A",
		FieldActivitySeq:      "E",
		FieldInternalQuantity: "S",
		FieldInternalAmount:   "T",
		FieldSalesAmount:      "AH",
	},
	SheetEstimates: {
		FieldActivitySeq: "B",
		FieldBudgetHours: "H",
		FieldBudgetCost:  "J",
	},
	SheetProjects: {
		FieldProjectID:   "A",
		FieldProjectName: "B",
		FieldStatus:      "D",
	},
}

// Resolve maps a logical field to a column index within the given headers.
// Matching order: case-insensitive exact match, then case-insensitive
// substring containment, then the static per-sheet-type fallback letters.
// Ties resolve to the first header in document order. The second return is
// false when the field cannot be located; callers treat that as "feature
// unavailable", never as an error.
func Resolve(headers []string, logicalField string, sheetType SheetType) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(logicalField))

	for idx, header := range headers {
		if strings.ToLower(strings.TrimSpace(header)) == want {
			return idx, true
		}
	}
	for idx, header := range headers {
		if strings.Contains(strings.ToLower(header), want) {
			return idx, true
		}
	}
	if letters, ok := fallbackColumns[sheetType]; ok {
		if letter, ok := letters[logicalField]; ok {
			if n, err := excelize.ColumnNameToNumber(letter); err == nil {
				return n - 1, true
			}
		}
	}
	return 0, false
}

// IndexMap is a resolved logical-field → column-index mapping for one sheet.
type IndexMap map[string]int

// BuildIndexMap resolves every requested field against the headers. Fields
// that cannot be resolved are simply absent from the map.
func BuildIndexMap(headers []string, fields []string, sheetType SheetType) IndexMap {
	indexes := make(IndexMap, len(fields))
	for _, field := range fields {
		if idx, ok := Resolve(headers, field, sheetType); ok {
			indexes[field] = idx
		}
	}
	return indexes
}
