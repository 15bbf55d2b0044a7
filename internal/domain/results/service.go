package results

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lims/internal/domain/cases"
	"github.com/medilab/lims/internal/domain/catalog"
)

// CaseSource is the slice of the case service the result pipeline reads.
type CaseSource interface {
	Get(ctx context.Context, id uuid.UUID) (*cases.Case, error)
	AdvanceReportStatus(ctx context.Context, id uuid.UUID, status cases.ReportStatus) (*cases.Case, error)
}

// FormulaSource supplies the registered formula definitions. Satisfied by
// *catalog.Service.
type FormulaSource interface {
	Formulas(ctx context.Context) ([]*catalog.Formula, error)
}

// ValueEntry is one captured value: which test, which parameter, what the
// technician typed.
type ValueEntry struct {
	TestID uuid.UUID `json:"test_id"`
	Param  string    `json:"param"`
	Value  string    `json:"value"`
}

type Service struct {
	repo     Repository
	builder  *Builder
	caseSvc  CaseSource
	formulas FormulaSource
	log      zerolog.Logger
}

func NewService(repo Repository, builder *Builder, caseSvc CaseSource, formulas FormulaSource, log zerolog.Logger) *Service {
	return &Service{repo: repo, builder: builder, caseSvc: caseSvc, formulas: formulas, log: log}
}

// BuildForCase expands the case's ordered tests into a result sheet. If a
// sheet already exists (the case was edited after entry began), values
// entered so far carry over by test and parameter identity; the old sheet is
// replaced.
func (s *Service) BuildForCase(ctx context.Context, caseID uuid.UUID) (*Result, error) {
	cs, err := s.caseSvc.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	fresh, err := s.builder.Build(ctx, cs)
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.GetByCase(ctx, caseID)
	switch {
	case err == nil:
		MergeValues(fresh, previous)
		fresh.ID = previous.ID
		fresh.CreatedAt = previous.CreatedAt
		err = s.repo.Update(ctx, fresh)
	case errors.Is(err, ErrNotFound):
		err = s.repo.Create(ctx, fresh)
	default:
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	return fresh, nil
}

// SaveValues applies entered values to the case's sheet, recomputes formula
// tests, and re-derives the sheet status. Entry marks the case's report as
// in progress.
func (s *Service) SaveValues(ctx context.Context, caseID uuid.UUID, entries []ValueEntry) (*Result, error) {
	r, err := s.repo.GetByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	byTest := make(map[uuid.UUID]map[string]string)
	for _, e := range entries {
		if byTest[e.TestID] == nil {
			byTest[e.TestID] = make(map[string]string)
		}
		byTest[e.TestID][e.Param] = e.Value
	}
	r.walk(func(item *ResultItem) {
		vals, ok := byTest[item.TestID]
		if !ok {
			return
		}
		for i := range item.Params {
			if v, ok := vals[item.Params[i].Name]; ok {
				item.Params[i].Value = v
			}
		}
	})

	if err := s.fillFormulas(ctx, r); err != nil {
		return nil, err
	}
	r.Status = r.ComputeStatus()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	if _, err := s.caseSvc.AdvanceReportStatus(ctx, caseID, cases.ReportInProgress); err != nil {
		s.log.Warn().Err(err).Str("case_id", caseID.String()).Msg("advance report status")
	}
	return r, nil
}

// fillFormulas computes every formula test on the sheet in dependency order,
// so formulas reading other formulas see their freshly computed values. A
// formula whose inputs are missing or whose expression divides by zero is
// left blank; the problem is recorded as an issue, never an error.
func (s *Service) fillFormulas(ctx context.Context, r *Result) error {
	defs, err := s.formulas.Formulas(ctx)
	if err != nil {
		return fmt.Errorf("load formulas: %w", err)
	}
	if len(defs) == 0 {
		return nil
	}
	byTest := make(map[uuid.UUID]*catalog.Formula, len(defs))
	graph := catalog.NewGraph()
	for _, f := range defs {
		byTest[f.TestID] = f
		ids := make([]uuid.UUID, 0, len(f.Dependencies))
		for _, d := range f.Dependencies {
			ids = append(ids, d.TestID)
		}
		// Stored formulas were cycle-checked at definition time.
		if err := graph.Add(f.TestID, ids); err != nil {
			return err
		}
	}
	order, err := graph.TopoOrder()
	if err != nil {
		return err
	}

	// index formula items on the sheet and collect known numeric values
	// keyed by short name.
	formulaItems := make(map[uuid.UUID][]*ResultItem)
	values := make(map[string]float64)
	r.walk(func(item *ResultItem) {
		if item.IsFormula {
			formulaItems[item.TestID] = append(formulaItems[item.TestID], item)
			return
		}
		if item.ShortName == "" || len(item.Params) != 1 {
			return
		}
		if v, perr := strconv.ParseFloat(item.Params[0].Value, 64); perr == nil {
			values[item.ShortName] = v
		}
	})

	for _, testID := range order {
		nodes, onSheet := formulaItems[testID]
		if !onSheet {
			continue
		}
		f := byTest[testID]
		expr, err := catalog.ParseExpression(f.Expression)
		if err != nil {
			return fmt.Errorf("formula for test %s: %w", testID, err)
		}
		result, evalErr := catalog.Evaluate(expr, values)
		for _, node := range nodes {
			if len(node.Params) != 1 {
				continue
			}
			if evalErr != nil {
				node.Params[0].Value = ""
				continue
			}
			node.Params[0].Value = strconv.FormatFloat(result, 'f', -1, 64)
		}
		if evalErr != nil {
			r.Issues = append(r.Issues, BuildIssue{TestID: testID, Reason: evalErr.Error()})
			continue
		}
		if short := nodes[0].ShortName; short != "" {
			values[short] = result
		}
	}
	return nil
}

func (s *Service) GetByCase(ctx context.Context, caseID uuid.UUID) (*Result, error) {
	return s.repo.GetByCase(ctx, caseID)
}
