package recon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/cshaw/projrecon/internal/domain"

	"golang.org/x/sync/errgroup"
)

// ErrAllSourcesMissing is returned when none of the three required sheets
// could be loaded. A single missing source is only a warning.
var ErrAllSourcesMissing = errors.New("all source sheets failed to load")

// Reader decodes one spreadsheet file into its sheets.
type Reader interface {
	Read(ctx context.Context, path string) ([]domain.SheetTable, error)
}

// Paths names the three source spreadsheets of one reconciliation run.
type Paths struct {
	Projects     string `json:"projects"`
	Transactions string `json:"transactions"`
	Estimates    string `json:"estimates"`
}

// SourceFiles lists the non-empty paths in a stable order.
func (p Paths) SourceFiles() []string {
	var files []string
	for _, path := range []string{p.Projects, p.Transactions, p.Estimates} {
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

// Diagnostics carries the per-stage tallies of one run.
type Diagnostics struct {
	Projects     IngestStats `json:"projects"`
	Transactions IngestStats `json:"transactions"`
	Estimates    IngestStats `json:"estimates"`
	Join         JoinStats   `json:"join"`
}

// Result is the published output of one reconciliation run.
type Result struct {
	Projects    map[string]*domain.Project             `json:"projects"`
	Employees   map[string]*domain.EmployeeProjectWork `json:"employees"`
	Warnings    []string                               `json:"warnings,omitempty"`
	Diagnostics Diagnostics                            `json:"diagnostics"`
}

// Pipeline orchestrates load → normalize → join → aggregate.
type Pipeline struct {
	reader  Reader
	joiner  *Joiner
	filters ProjectFilterRules
}

// NewPipeline wires a pipeline over the given reader.
func NewPipeline(reader Reader, joiner *Joiner, filters ProjectFilterRules) *Pipeline {
	if joiner == nil {
		joiner = NewJoiner()
	}
	return &Pipeline{reader: reader, joiner: joiner, filters: filters}
}

type sourceLoad struct {
	name  string
	path  string
	typ   SheetType
	table domain.SheetTable
	found bool
	err   error
}

// Run executes one reconciliation pass. The three file reads are issued in
// parallel and joined with a barrier; a source that fails to load is skipped
// with a warning while the others still process. Only the loss of every
// source fails the run.
func (p *Pipeline) Run(ctx context.Context, paths Paths) (*Result, error) {
	loads := []*sourceLoad{
		{name: "projects", path: paths.Projects, typ: SheetProjects},
		{name: "transactions", path: paths.Transactions, typ: SheetTransactions},
		{name: "estimates", path: paths.Estimates, typ: SheetEstimates},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loads {
		load := load
		g.Go(func() error {
			// Errors stay in the slot; one bad source must not
			// cancel the others.
			tables, err := p.reader.Read(gctx, load.path)
			if err != nil {
				load.err = err
				return nil
			}
			if len(tables) == 0 {
				load.err = fmt.Errorf("workbook %s produced no sheets", load.path)
				return nil
			}
			load.table, load.found = pickSheet(tables, load.typ)
			if !load.found {
				load.err = fmt.Errorf("workbook %s has no %s sheet", load.path, load.name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Projects:  make(map[string]*domain.Project),
		Employees: make(map[string]*domain.EmployeeProjectWork),
	}

	missing := 0
	for _, load := range loads {
		if load.err != nil {
			missing++
			warning := fmt.Sprintf("missing sheet: %s source unavailable: %v", load.name, load.err)
			result.Warnings = append(result.Warnings, warning)
			log.Printf("[PIPELINE] %s", warning)
		}
	}
	if missing == len(loads) {
		return nil, ErrAllSourcesMissing
	}

	var projectRecs, transactionRecs, estimateRecs []domain.NormalizedRecord
	for _, load := range loads {
		if load.err != nil {
			continue
		}
		switch load.typ {
		case SheetProjects:
			projectRecs, result.Diagnostics.Projects = Ingest(load.table, ProjectSchema, p.filters)
		case SheetTransactions:
			transactionRecs, result.Diagnostics.Transactions = Ingest(load.table, TransactionSchema, p.filters)
		case SheetEstimates:
			estimateRecs, result.Diagnostics.Estimates = Ingest(load.table, EstimateSchema, p.filters)
		}
	}

	projects, joinStats := p.joiner.JoinProjects(transactionRecs, estimateRecs, projectRecs)
	result.Diagnostics.Join = joinStats

	for _, project := range projects {
		Aggregate(project)
		result.Projects[project.ID] = project
		mergeEmployees(result.Employees, project.Employees)
	}

	log.Printf("[PIPELINE] reconciled %d projects, %d activities, %d transactions (%d dropped)",
		len(result.Projects), joinStats.ActivitiesCreated, joinStats.TransactionsAttached,
		joinStats.UnknownProjectTransactions)

	return result, nil
}

// pickSheet selects the workbook tab holding the given source table, by
// sheet-name convention; falls back to the first sheet with headers.
func pickSheet(tables []domain.SheetTable, typ SheetType) (domain.SheetTable, bool) {
	var needle, exclude string
	switch typ {
	case SheetTransactions:
		needle = "transaction"
	case SheetEstimates:
		needle = "estimate"
	case SheetProjects:
		needle, exclude = "project", "transaction"
	}

	for _, table := range tables {
		lower := strings.ToLower(table.SheetName)
		if strings.Contains(lower, needle) && (exclude == "" || !strings.Contains(lower, exclude)) {
			return table, true
		}
	}
	for _, table := range tables {
		if len(table.Headers) > 0 {
			return table, true
		}
	}
	return domain.SheetTable{}, false
}

func mergeEmployees(into, from map[string]*domain.EmployeeProjectWork) {
	for id, work := range from {
		merged, ok := into[id]
		if !ok {
			merged = &domain.EmployeeProjectWork{EmployeeID: work.EmployeeID, EmployeeName: work.EmployeeName}
			into[id] = merged
		}
		merged.Hours += work.Hours
		merged.Cost += work.Cost
		for _, activity := range work.Activities {
			if !contains(merged.Activities, activity) {
				merged.Activities = append(merged.Activities, activity)
			}
		}
		sort.Strings(merged.Activities)
	}
}
