package recon

import (
	"github.com/cshaw/projrecon/internal/domain"
)

// BudgetPolicy decides the budget figures for an activity that has no
// estimate row. The shipped default reproduces the source behavior: an even
// split of the parent project's total budget across its activities. That
// split double-counts once estimates exist for only some activities; it is
// kept for output parity and made replaceable here instead of being buried
// in the join loop.
type BudgetPolicy func(project *domain.Project, activityCount int) (hours, cost, revenue float64)

// EvenSplitBudgetPolicy divides the project budget evenly across activities.
func EvenSplitBudgetPolicy(project *domain.Project, activityCount int) (float64, float64, float64) {
	if activityCount == 0 {
		return 0, 0, 0
	}
	return 0, project.Budget / float64(activityCount), 0
}

// JoinStats tallies join outcomes for diagnostics.
type JoinStats struct {
	ProjectsMapped             int `json:"projectsMapped"`
	ActivitiesCreated          int `json:"activitiesCreated"`
	TransactionsAttached       int `json:"transactionsAttached"`
	UnknownProjectTransactions int `json:"unknownProjectTransactions"`
	EstimatesMatched           int `json:"estimatesMatched"`
}

// Joiner correlates the three source tables into the project→activity graph.
type Joiner struct {
	Budget BudgetPolicy
}

// NewJoiner returns a joiner with the default budget policy.
func NewJoiner() *Joiner {
	return &Joiner{Budget: EvenSplitBudgetPolicy}
}

// JoinProjects merges transactions, estimates and the project master into a
// project map keyed by project id.
//
// The project map is first-wins on duplicate ids. Transactions stream in
// order; the first transaction for a composite activity key establishes the
// descriptive fields, later ones only accumulate. A transaction whose
// project id is absent from the master is counted and dropped; partial data
// must not abort the reconciliation. Estimates are budget annotations keyed
// by Activity Seq with last-wins overwrite semantics; an estimate matching
// no transaction never creates an activity.
func (j *Joiner) JoinProjects(transactions, estimates, projects []domain.NormalizedRecord) (map[string]*domain.Project, JoinStats) {
	var stats JoinStats

	byID := make(map[string]*domain.Project, len(projects))
	for _, rec := range projects {
		id := rec.String(FieldProjectID)
		if _, exists := byID[id]; exists {
			continue
		}
		byID[id] = &domain.Project{
			ID:        id,
			Name:      rec.String(FieldProjectName),
			Customer:  rec.String(FieldCustomer),
			Budget:    rec.Float(FieldTotalBudget),
			Status:    domain.ProjectStatusActive,
			Employees: make(map[string]*domain.EmployeeProjectWork),
		}
		stats.ProjectsMapped++
	}

	activities := make(map[string]*domain.Activity)
	for _, rec := range transactions {
		projectID := rec.String(FieldProjectID)
		project, known := byID[projectID]
		if !known {
			stats.UnknownProjectTransactions++
			continue
		}

		seq := rec.String(FieldActivitySeq)
		sub := rec.String(FieldSubProject)
		key := domain.ActivityKey(projectID, seq, sub)

		activity, exists := activities[key]
		if !exists {
			activity = &domain.Activity{
				ID:                    key,
				ProjectID:             projectID,
				ActivitySeq:           seq,
				Description:           rec.String(FieldActivityDesc),
				SubProjectDescription: sub,
				Employees:             make(map[string]*domain.EmployeeActivityWork),
			}
			activities[key] = activity
			project.Activities = append(project.Activities, activity)
			stats.ActivitiesCreated++
		}

		tx := domain.Transaction{
			Date:          rec.Time(FieldAccountDate),
			EmployeeID:    rec.String(FieldEmployeeID),
			EmployeeName:  rec.String(FieldEmployeeName),
			Hours:         rec.Float(FieldInternalQuantity),
			InternalCost:  rec.Float(FieldInternalAmount),
			SalesRevenue:  rec.Float(FieldSalesAmount),
			InvoiceStatus: rec.String(FieldInvoiceStatus),
		}
		activity.Transactions = append(activity.Transactions, tx)
		activity.ActualHours += tx.Hours
		activity.ActualCost += tx.InternalCost
		activity.ActualRevenue += tx.SalesRevenue
		stats.TransactionsAttached++
	}

	bySeq := make(map[string]domain.NormalizedRecord, len(estimates))
	for _, rec := range estimates {
		bySeq[rec.String(FieldActivitySeq)] = rec
	}

	budget := j.Budget
	if budget == nil {
		budget = EvenSplitBudgetPolicy
	}

	for _, project := range byID {
		for _, activity := range project.Activities {
			if est, ok := bySeq[activity.ActivitySeq]; ok {
				activity.BudgetHours = est.Float(FieldBudgetHours)
				activity.BudgetCost = est.Float(FieldBudgetCost)
				activity.BudgetRevenue = est.Float(FieldBudgetRevenue)
				stats.EstimatesMatched++
				continue
			}
			activity.BudgetHours, activity.BudgetCost, activity.BudgetRevenue = budget(project, len(project.Activities))
		}
	}

	return byID, stats
}

// Join returns the merged activities across all projects.
func (j *Joiner) Join(transactions, estimates, projects []domain.NormalizedRecord) ([]*domain.Activity, JoinStats) {
	byID, stats := j.JoinProjects(transactions, estimates, projects)
	var all []*domain.Activity
	for _, project := range byID {
		all = append(all, project.Activities...)
	}
	return all, stats
}
