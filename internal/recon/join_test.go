package recon

import (
	"testing"
	"time"

	"github.com/cshaw/projrecon/internal/domain"
)

func txRecord(projectID, seq, sub, employee string, hours, cost, revenue float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		FieldProjectID:        projectID,
		FieldActivitySeq:      seq,
		FieldSubProject:       sub,
		FieldActivityDesc:     "Activity " + seq,
		FieldEmployeeID:       employee,
		FieldEmployeeName:     "Employee " + employee,
		FieldAccountDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		FieldInternalQuantity: hours,
		FieldInternalAmount:   cost,
		FieldSalesAmount:      revenue,
	}
}

func estRecord(seq string, hours, cost, revenue float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		FieldActivitySeq:   seq,
		FieldBudgetHours:   hours,
		FieldBudgetCost:    cost,
		FieldBudgetRevenue: revenue,
	}
}

func projRecord(id, name string, budget float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		FieldProjectID:   id,
		FieldProjectName: name,
		FieldTotalBudget: budget,
	}
}

func TestJoinMatchesEstimateToActivity(t *testing.T) {
	projects, _ := NewJoiner().JoinProjects(
		[]domain.NormalizedRecord{txRecord("P1", "100", "", "E1", 5, 500, 800)},
		[]domain.NormalizedRecord{estRecord("100", 10, 1000, 0)},
		[]domain.NormalizedRecord{projRecord("P1", "One", 5000)},
	)

	p1 := projects["P1"]
	if p1 == nil {
		t.Fatalf("expected project P1")
	}
	if len(p1.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(p1.Activities))
	}
	act := p1.Activities[0]
	if act.ActualHours != 5 || act.ActualCost != 500 || act.ActualRevenue != 800 {
		t.Fatalf("unexpected actuals: %+v", act)
	}
	if act.BudgetHours != 10 || act.BudgetCost != 1000 {
		t.Fatalf("unexpected budgets: %+v", act)
	}
}

func TestJoinDropsUnknownProjectTransactions(t *testing.T) {
	projects, stats := NewJoiner().JoinProjects(
		[]domain.NormalizedRecord{
			txRecord("P1", "100", "", "E1", 1, 10, 20),
			txRecord("GHOST", "200", "", "E2", 2, 20, 40),
		},
		nil,
		[]domain.NormalizedRecord{projRecord("P1", "One", 100)},
	)

	if stats.UnknownProjectTransactions != 1 {
		t.Fatalf("expected 1 dropped transaction, got %d", stats.UnknownProjectTransactions)
	}
	for _, project := range projects {
		for _, act := range project.Activities {
			for _, tx := range act.Transactions {
				if tx.EmployeeID == "E2" {
					t.Fatalf("unknown-project transaction must not appear in any activity")
				}
			}
		}
	}
}

func TestJoinAttachesEachTransactionExactlyOnce(t *testing.T) {
	txs := []domain.NormalizedRecord{
		txRecord("P1", "100", "", "E1", 1, 10, 0),
		txRecord("P1", "100", "", "E2", 2, 20, 0),
		txRecord("P1", "200", "", "E1", 3, 30, 0),
	}
	projects, stats := NewJoiner().JoinProjects(txs, nil, []domain.NormalizedRecord{projRecord("P1", "One", 100)})

	attached := 0
	for _, act := range projects["P1"].Activities {
		attached += len(act.Transactions)
	}
	if attached != len(txs) {
		t.Fatalf("expected %d attached transactions, got %d", len(txs), attached)
	}
	if stats.TransactionsAttached != len(txs) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestJoinCompositeKeyIncludesSubProject(t *testing.T) {
	projects, _ := NewJoiner().JoinProjects(
		[]domain.NormalizedRecord{
			txRecord("P1", "100", "Design", "E1", 1, 10, 0),
			txRecord("P1", "100", "Build", "E1", 2, 20, 0),
		},
		nil,
		[]domain.NormalizedRecord{projRecord("P1", "One", 100)},
	)

	if len(projects["P1"].Activities) != 2 {
		t.Fatalf("same seq with different sub-projects must yield 2 activities, got %d", len(projects["P1"].Activities))
	}
}

func TestJoinEstimateAloneCreatesNoActivity(t *testing.T) {
	projects, stats := NewJoiner().JoinProjects(
		nil,
		[]domain.NormalizedRecord{estRecord("999", 10, 1000, 0)},
		[]domain.NormalizedRecord{projRecord("P1", "One", 100)},
	)

	if len(projects["P1"].Activities) != 0 {
		t.Fatalf("estimates alone must not create activities")
	}
	if stats.ActivitiesCreated != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestJoinLastEstimateWinsOnDuplicateSeq(t *testing.T) {
	projects, _ := NewJoiner().JoinProjects(
		[]domain.NormalizedRecord{txRecord("P1", "100", "", "E1", 1, 10, 0)},
		[]domain.NormalizedRecord{
			estRecord("100", 1, 111, 0),
			estRecord("100", 2, 222, 0),
		},
		[]domain.NormalizedRecord{projRecord("P1", "One", 100)},
	)

	act := projects["P1"].Activities[0]
	if act.BudgetCost != 222 {
		t.Fatalf("expected last estimate to win, got budget cost %v", act.BudgetCost)
	}
}

func TestJoinFirstProjectWinsOnDuplicateIDs(t *testing.T) {
	projects, _ := NewJoiner().JoinProjects(
		nil,
		nil,
		[]domain.NormalizedRecord{
			projRecord("P1", "First", 100),
			projRecord("P1", "Second", 200),
		},
	)
	if projects["P1"].Name != "First" {
		t.Fatalf("expected first project row to win, got %q", projects["P1"].Name)
	}
}

func TestJoinDefaultBudgetIsEvenSplit(t *testing.T) {
	projects, _ := NewJoiner().JoinProjects(
		[]domain.NormalizedRecord{
			txRecord("P1", "100", "", "E1", 1, 10, 0),
			txRecord("P1", "200", "", "E1", 2, 20, 0),
		},
		[]domain.NormalizedRecord{estRecord("100", 5, 500, 0)},
		[]domain.NormalizedRecord{projRecord("P1", "One", 1000)},
	)

	for _, act := range projects["P1"].Activities {
		switch act.ActivitySeq {
		case "100":
			if act.BudgetCost != 500 {
				t.Fatalf("estimated activity should keep its estimate, got %v", act.BudgetCost)
			}
		case "200":
			if act.BudgetCost != 500 {
				t.Fatalf("unestimated activity gets budget/activityCount, got %v", act.BudgetCost)
			}
		}
	}
}

func TestJoinBudgetPolicyIsOverridable(t *testing.T) {
	joiner := NewJoiner()
	joiner.Budget = func(project *domain.Project, activityCount int) (float64, float64, float64) {
		return 0, 0, 0
	}

	projects, _ := joiner.JoinProjects(
		[]domain.NormalizedRecord{txRecord("P1", "100", "", "E1", 1, 10, 0)},
		nil,
		[]domain.NormalizedRecord{projRecord("P1", "One", 1000)},
	)
	if projects["P1"].Activities[0].BudgetCost != 0 {
		t.Fatalf("override policy must apply")
	}
}
