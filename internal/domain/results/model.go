package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lims/internal/domain/cases"
)

// ResultStatus tracks whether every parameter of a result sheet has a value.
type ResultStatus string

const (
	StatusPending   ResultStatus = "Pending"
	StatusCompleted ResultStatus = "Completed"
)

// ResultParam is one entry field on the result sheet: the parameter identity
// from the catalog, the captured value, and the reference display resolved
// for this patient.
type ResultParam struct {
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	GroupBy   string `json:"group_by,omitempty"`
	Value     string `json:"value"`
	Reference string `json:"reference"`
}

// ResultItem is one node of the result tree: a test with its parameters, or
// a panel/package with nested items. Panels and packages carry no parameters
// of their own.
type ResultItem struct {
	TestID         uuid.UUID     `json:"test_id"`
	Name           string        `json:"name"`
	IsPanel        bool          `json:"is_panel"`
	IsPackage      bool          `json:"is_package"`
	IsFormula      bool          `json:"is_formula"`
	ShortName      string        `json:"short_name,omitempty"`
	Interpretation string        `json:"interpretation,omitempty"`
	Params         []ResultParam `json:"params,omitempty"`
	Tests          []ResultItem  `json:"tests,omitempty"`
}

// ResultCategory is the slice of the result tree under one service line; the
// report composer emits one page per category.
type ResultCategory struct {
	Name  string       `json:"name"`
	Tests []ResultItem `json:"tests"`
}

// BuildIssue records a catalog problem encountered while building the tree.
// Issues never abort the whole build; the offending subtree is skipped.
type BuildIssue struct {
	TestID uuid.UUID `json:"test_id"`
	Reason string    `json:"reason"`
}

// Result is the entry sheet for a case: a patient snapshot plus the ordered
// tests expanded into an enterable tree. Exactly one result exists per case.
type Result struct {
	ID         uuid.UUID        `json:"id"`
	CaseID     uuid.UUID        `json:"case_id"`
	BranchID   string           `json:"branch_id"`
	RegNo      string           `json:"reg_no"`
	Patient    cases.Patient    `json:"patient"`
	Categories []ResultCategory `json:"categories"`
	Issues     []BuildIssue     `json:"issues,omitempty"`
	Status     ResultStatus     `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// walk visits every item in the tree pre-order, categories in order.
func (r *Result) walk(fn func(item *ResultItem)) {
	var visit func(items []ResultItem)
	visit = func(items []ResultItem) {
		for i := range items {
			fn(&items[i])
			visit(items[i].Tests)
		}
	}
	for i := range r.Categories {
		visit(r.Categories[i].Tests)
	}
}

// ComputeStatus derives the sheet status: completed when every parameter of
// every test holds a value, pending otherwise. Document tests have no
// parameters and never hold a sheet open.
func (r *Result) ComputeStatus() ResultStatus {
	complete := true
	r.walk(func(item *ResultItem) {
		for _, p := range item.Params {
			if p.Value == "" {
				complete = false
			}
		}
	})
	if complete {
		return StatusCompleted
	}
	return StatusPending
}
