package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Project status classifications derived during aggregation.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusOnHold    = "on-hold"
)

// Percent is a utilization percentage. Stored values are exact; rounding to
// two decimals and the "∞" sentinel for a zero budget with nonzero spend are
// applied only when marshaling for display.
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsInf(f, 1) {
		return []byte(`"∞"`), nil
	}
	// decimal.NewFromFloat panics on non-finite input.
	if math.IsNaN(f) || math.IsInf(f, -1) {
		return []byte("0"), nil
	}
	return []byte(decimal.NewFromFloat(f).Round(2).String()), nil
}

// UnmarshalJSON accepts both the numeric form and the "∞" sentinel so cached
// payloads round trip.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == `"∞"` {
		*p = Percent(math.Inf(1))
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid percent value %s: %w", data, err)
	}
	f, _ := d.Float64()
	*p = Percent(f)
	return nil
}

// RoundDisplay rounds a monetary value to two decimals for presentation.
// Aggregates are never stored rounded; sum-of-rounded differs from
// rounded-of-sum.
func RoundDisplay(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Transaction is one time/cost row from the transactions sheet. Immutable
// once created.
type Transaction struct {
	Date          time.Time `json:"date"`
	EmployeeID    string    `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	Hours         float64   `json:"hours"`
	InternalCost  float64   `json:"internalCost"`
	SalesRevenue  float64   `json:"salesRevenue"`
	InvoiceStatus string    `json:"invoiceStatus"`
}

// EmployeeActivityWork accumulates one employee's work inside a single
// activity.
type EmployeeActivityWork struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Hours        float64 `json:"hours"`
	Cost         float64 `json:"cost"`
}

// EmployeeProjectWork accumulates one employee's work across a project,
// with the deduplicated list of activity descriptions they touched.
type EmployeeProjectWork struct {
	EmployeeID   string   `json:"employeeId"`
	EmployeeName string   `json:"employeeName"`
	Hours        float64  `json:"hours"`
	Cost         float64  `json:"cost"`
	Activities   []string `json:"activities"`
}

// Activity is one unit of work within a project, keyed by the composite of
// project id, activity sequence and sub-project description.
type Activity struct {
	ID                    string                           `json:"id"`
	ProjectID             string                           `json:"projectId"`
	ActivitySeq           string                           `json:"activitySeq"`
	Description           string                           `json:"description"`
	SubProjectDescription string                           `json:"subProjectDescription"`
	BudgetHours           float64                          `json:"budgetHours"`
	BudgetCost            float64                          `json:"budgetCost"`
	BudgetRevenue         float64                          `json:"budgetRevenue"`
	ActualHours           float64                          `json:"actualHours"`
	ActualCost            float64                          `json:"actualCost"`
	ActualRevenue         float64                          `json:"actualRevenue"`
	RemainingCost         float64                          `json:"remainingCost"`
	RemainingHours        float64                          `json:"remainingHours"`
	Utilization           Percent                          `json:"utilization"`
	Employees             map[string]*EmployeeActivityWork `json:"employees"`
	Transactions          []Transaction                    `json:"transactions"`
}

// ActivityKey builds the composite activity identity.
func ActivityKey(projectID, activitySeq, subProject string) string {
	return fmt.Sprintf("%s|%s|%s", projectID, activitySeq, subProject)
}

// Project is the reconciled view of one project, with its activities and
// per-employee rollups. Shared read-only with consumers once published.
type Project struct {
	ID          string                          `json:"id"`
	Name        string                          `json:"name"`
	Customer    string                          `json:"customer"`
	Budget      float64                         `json:"budget"`
	ActualSpent float64                         `json:"actualSpent"`
	Margin      float64                         `json:"margin"`
	Status      string                          `json:"status"`
	Activities  []*Activity                     `json:"activities"`
	Employees   map[string]*EmployeeProjectWork `json:"employees"`
	StartDate   *time.Time                      `json:"startDate"`
	EndDate     *time.Time                      `json:"endDate"`
}
