package recon

import (
	"math"
	"sort"

	"github.com/cshaw/projrecon/internal/domain"
)

// Aggregate folds a project's transactions into its derived metrics, in
// place. Per activity: remaining budget and utilization (a zero budget with
// spend reports the infinity sentinel, never NaN). Per project: total spent,
// margin, transaction date range, status classification and per-employee
// rollups. Monetary sums keep the source values as given; rounding happens
// only at presentation.
func Aggregate(project *domain.Project) *domain.Project {
	project.ActualSpent = 0
	project.StartDate = nil
	project.EndDate = nil
	project.Employees = make(map[string]*domain.EmployeeProjectWork)

	for _, activity := range project.Activities {
		activity.RemainingCost = activity.BudgetCost - activity.ActualCost
		activity.RemainingHours = activity.BudgetHours - activity.ActualHours
		activity.Utilization = utilization(activity.ActualCost, activity.BudgetCost)

		activity.Employees = make(map[string]*domain.EmployeeActivityWork)
		for _, tx := range activity.Transactions {
			accumulate(project, activity, tx)
		}

		project.ActualSpent += activity.ActualCost
	}

	project.Margin = project.Budget - project.ActualSpent
	project.Status = classify(project)

	for _, work := range project.Employees {
		sort.Strings(work.Activities)
	}

	return project
}

func utilization(spent, budget float64) domain.Percent {
	if budget == 0 {
		if spent > 0 {
			return domain.Percent(math.Inf(1))
		}
		return 0
	}
	return domain.Percent(spent / budget * 100)
}

func classify(project *domain.Project) string {
	if project.Margin < 0 {
		return domain.ProjectStatusOnHold
	}
	if project.Budget != 0 && project.ActualSpent/project.Budget > 0.9 {
		return domain.ProjectStatusCompleted
	}
	return domain.ProjectStatusActive
}

func accumulate(project *domain.Project, activity *domain.Activity, tx domain.Transaction) {
	if !tx.Date.IsZero() {
		if project.StartDate == nil || tx.Date.Before(*project.StartDate) {
			start := tx.Date
			project.StartDate = &start
		}
		if project.EndDate == nil || tx.Date.After(*project.EndDate) {
			end := tx.Date
			project.EndDate = &end
		}
	}

	if tx.EmployeeID == "" {
		return
	}

	actWork, ok := activity.Employees[tx.EmployeeID]
	if !ok {
		actWork = &domain.EmployeeActivityWork{EmployeeID: tx.EmployeeID, EmployeeName: tx.EmployeeName}
		activity.Employees[tx.EmployeeID] = actWork
	}
	actWork.Hours += tx.Hours
	actWork.Cost += tx.InternalCost

	projWork, ok := project.Employees[tx.EmployeeID]
	if !ok {
		projWork = &domain.EmployeeProjectWork{EmployeeID: tx.EmployeeID, EmployeeName: tx.EmployeeName}
		project.Employees[tx.EmployeeID] = projWork
	}
	projWork.Hours += tx.Hours
	projWork.Cost += tx.InternalCost

	if activity.Description != "" && !contains(projWork.Activities, activity.Description) {
		projWork.Activities = append(projWork.Activities, activity.Description)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
