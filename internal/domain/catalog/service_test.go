package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockFormulaRepo struct {
	formulas map[uuid.UUID]*Formula
}

func newMockFormulaRepo() *mockFormulaRepo {
	return &mockFormulaRepo{formulas: make(map[uuid.UUID]*Formula)}
}

func (m *mockFormulaRepo) Create(ctx context.Context, f *Formula) error {
	m.formulas[f.TestID] = f
	return nil
}

func (m *mockFormulaRepo) GetByTest(ctx context.Context, testID uuid.UUID) (*Formula, error) {
	f, ok := m.formulas[testID]
	if !ok {
		return nil, errors.New("formula not found")
	}
	return f, nil
}

func (m *mockFormulaRepo) ListAll(ctx context.Context) ([]*Formula, error) {
	out := make([]*Formula, 0, len(m.formulas))
	for _, f := range m.formulas {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFormulaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.formulas, id)
	return nil
}

type mockItemRepo struct {
	items map[uuid.UUID]*Item
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[uuid.UUID]*Item)}
}

func (m *mockItemRepo) Create(ctx context.Context, item *Item) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, errors.New("item not found")
	}
	return item, nil
}

func (m *mockItemRepo) BatchGet(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error) {
	out := make(map[uuid.UUID]*Item, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *mockItemRepo) List(ctx context.Context, kind ItemKind, limit, offset int) ([]*Item, int, error) {
	var out []*Item
	for _, item := range m.items {
		if kind == "" || item.Kind == kind {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

type mockRangeRepo struct {
	ranges map[uuid.UUID][]ReferenceRange
}

func newMockRangeRepo() *mockRangeRepo {
	return &mockRangeRepo{ranges: make(map[uuid.UUID][]ReferenceRange)}
}

func (m *mockRangeRepo) Create(ctx context.Context, r *ReferenceRange) error {
	m.ranges[r.TestID] = append(m.ranges[r.TestID], *r)
	return nil
}

func (m *mockRangeRepo) ListByTest(ctx context.Context, testID uuid.UUID) ([]ReferenceRange, error) {
	return m.ranges[testID], nil
}

func (m *mockRangeRepo) ListByTests(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID][]ReferenceRange, error) {
	out := make(map[uuid.UUID][]ReferenceRange, len(testIDs))
	for _, id := range testIDs {
		if rs, ok := m.ranges[id]; ok {
			out[id] = rs
		}
	}
	return out, nil
}

func newTestCatalogService() (*Service, *mockItemRepo, *mockFormulaRepo) {
	items := newMockItemRepo()
	formulas := newMockFormulaRepo()
	return NewService(items, newMockRangeRepo(), formulas), items, formulas
}

func dep(id uuid.UUID, short string) FormulaDependency {
	return FormulaDependency{TestID: id, ShortName: short}
}

func TestRegisterFormula(t *testing.T) {
	svc, _, repo := newTestCatalogService()
	ctx := context.Background()

	ldl, tc, hdl, tg := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	err := svc.RegisterFormula(ctx, &Formula{
		TestID:       ldl,
		Expression:   "TC - HDL - TG / 5",
		Dependencies: []FormulaDependency{dep(tc, "TC"), dep(hdl, "HDL"), dep(tg, "TG")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.formulas[ldl]; !ok {
		t.Error("formula was not stored")
	}
}

func TestRegisterFormulaBadExpression(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	err := svc.RegisterFormula(context.Background(), &Formula{
		TestID:     uuid.New(),
		Expression: "TC - (HDL",
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRegisterFormulaUndeclaredToken(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	tc := uuid.New()
	err := svc.RegisterFormula(context.Background(), &Formula{
		TestID:       uuid.New(),
		Expression:   "TC + HDL",
		Dependencies: []FormulaDependency{dep(tc, "TC")},
	})
	if err == nil {
		t.Fatal("expected error for undeclared token")
	}
}

func TestRegisterFormulaDuplicate(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	ctx := context.Background()
	target, other := uuid.New(), uuid.New()

	f := &Formula{
		TestID:       target,
		Expression:   "A * 2",
		Dependencies: []FormulaDependency{dep(other, "A")},
	}
	if err := svc.RegisterFormula(ctx, f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RegisterFormula(ctx, f); err == nil {
		t.Fatal("expected duplicate formula rejection")
	}
}

func TestRegisterFormulaCycleRejected(t *testing.T) {
	svc, _, repo := newTestCatalogService()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	err := svc.RegisterFormula(ctx, &Formula{
		TestID:       a,
		Expression:   "B + 1",
		Dependencies: []FormulaDependency{dep(b, "B")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.RegisterFormula(ctx, &Formula{
		TestID:       b,
		Expression:   "A + 1",
		Dependencies: []FormulaDependency{dep(a, "A")},
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if _, ok := repo.formulas[b]; ok {
		t.Error("cyclic formula must not be stored")
	}
}

func TestRegisterFormulaChainAccepted(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// C has no dependencies on other formulas, B depends on C, A on B.
	chain := []*Formula{
		{TestID: c, Expression: "10 + 5"},
		{TestID: b, Expression: "C * 2", Dependencies: []FormulaDependency{dep(c, "C")}},
		{TestID: a, Expression: "B + 1", Dependencies: []FormulaDependency{dep(b, "B")}},
	}
	for _, f := range chain {
		if err := svc.RegisterFormula(ctx, f); err != nil {
			t.Fatalf("register %s: %v", f.Expression, err)
		}
	}

	all, err := svc.Formulas(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := NewGraph()
	for _, f := range all {
		if err := g.Add(f.TestID, dependencyIDs(f)); err != nil {
			t.Fatalf("rebuild graph: %v", err)
		}
	}
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := make(map[uuid.UUID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if !(pos[c] < pos[b] && pos[b] < pos[a]) {
		t.Errorf("expected evaluation order c, b, a; got %v", order)
	}
}
