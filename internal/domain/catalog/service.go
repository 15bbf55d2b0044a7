package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service is the read surface the case/result/report pipeline consumes, plus
// formula registration. Catalog authoring and its approval workflow live in a
// separate admin system.
type Service struct {
	items    ItemRepository
	ranges   RangeRepository
	formulas FormulaRepository
}

func NewService(items ItemRepository, ranges RangeRepository, formulas FormulaRepository) *Service {
	return &Service{items: items, ranges: ranges, formulas: formulas}
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.items.GetByID(ctx, id)
}

// BatchItems looks up many catalog items at once; the result tree builder
// expands many ids per case.
func (s *Service) BatchItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error) {
	return s.items.BatchGet(ctx, ids)
}

func (s *Service) ListItems(ctx context.Context, kind ItemKind, limit, offset int) ([]*Item, int, error) {
	return s.items.List(ctx, kind, limit, offset)
}

func (s *Service) RangesForTest(ctx context.Context, testID uuid.UUID) ([]ReferenceRange, error) {
	return s.ranges.ListByTest(ctx, testID)
}

func (s *Service) RangesByTests(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID][]ReferenceRange, error) {
	return s.ranges.ListByTests(ctx, testIDs)
}

func (s *Service) Formulas(ctx context.Context) ([]*Formula, error) {
	return s.formulas.ListAll(ctx)
}

// RegisterFormula validates and stores a formula definition. The expression
// must parse, every token it references must appear among the declared
// dependencies, and adding the formula must not close a dependency cycle.
// Cycles are rejected here, at definition time, so the evaluator never sees
// one.
func (s *Service) RegisterFormula(ctx context.Context, f *Formula) error {
	if f.TestID == uuid.Nil {
		return fmt.Errorf("test_id is required")
	}
	expr, err := ParseExpression(f.Expression)
	if err != nil {
		return fmt.Errorf("parse formula expression: %w", err)
	}

	declared := make(map[string]bool, len(f.Dependencies))
	for _, d := range f.Dependencies {
		declared[d.ShortName] = true
	}
	for _, token := range Tokens(expr) {
		if !declared[token] {
			return fmt.Errorf("expression references undeclared token %q", token)
		}
	}

	existing, err := s.formulas.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load existing formulas: %w", err)
	}
	graph := NewGraph()
	for _, ef := range existing {
		if ef.TestID == f.TestID {
			return fmt.Errorf("test %s already has a formula", f.TestID)
		}
		// Already-stored formulas are acyclic; Add cannot fail here.
		_ = graph.Add(ef.TestID, dependencyIDs(ef))
	}
	if err := graph.Add(f.TestID, dependencyIDs(f)); err != nil {
		return err
	}

	return s.formulas.Create(ctx, f)
}

func (s *Service) DeleteFormula(ctx context.Context, id uuid.UUID) error {
	return s.formulas.Delete(ctx, id)
}

func dependencyIDs(f *Formula) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.Dependencies))
	for _, d := range f.Dependencies {
		ids = append(ids, d.TestID)
	}
	return ids
}
