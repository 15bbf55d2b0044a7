package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func mustParse(t *testing.T, input string) Expr {
	t.Helper()
	expr, err := ParseExpression(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return expr
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		expr   string
		values map[string]float64
		want   float64
	}{
		{"1 + 2 * 3", nil, 7},
		{"(1 + 2) * 3", nil, 9},
		{"10 - 4 - 3", nil, 3},
		{"20 / 4 / 5", nil, 1},
		{"-5 + 10", nil, 5},
		{"HDL + LDL", map[string]float64{"HDL": 40, "LDL": 100}, 140},
		{"TC - HDL - TG / 5", map[string]float64{"TC": 200, "HDL": 50, "TG": 150}, 120},
	}
	for _, tc := range tests {
		got, err := Evaluate(mustParse(t, tc.expr), tc.values)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.expr, tc.want, got)
		}
	}
}

func TestEvaluateMissingDependency(t *testing.T) {
	expr := mustParse(t, "HDL + LDL")
	_, err := Evaluate(expr, map[string]float64{"HDL": 40})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	expr := mustParse(t, "TC / TG")
	_, err := Evaluate(expr, map[string]float64{"TC": 200, "TG": 0})
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{"", "1 +", "(1 + 2", "1 2", "HDL $ LDL", "* 3"}
	for _, input := range bad {
		if _, err := ParseExpression(input); err == nil {
			t.Errorf("expected parse error for %q", input)
		}
	}
}

func TestTokens(t *testing.T) {
	expr := mustParse(t, "TC - HDL - TG / 5")
	tokens := Tokens(expr)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	seen := make(map[string]bool)
	for _, tok := range tokens {
		seen[tok] = true
	}
	for _, want := range []string{"TC", "HDL", "TG"} {
		if !seen[want] {
			t.Errorf("missing token %q", want)
		}
	}
}

func TestGraphRejectsTwoNodeCycle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := NewGraph()
	if err := g.Add(a, []uuid.UUID{b}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := g.Add(b, []uuid.UUID{a})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestGraphRejectsSelfReference(t *testing.T) {
	a := uuid.New()
	g := NewGraph()
	err := g.Add(a, []uuid.UUID{a})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestGraphCycleRollback(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := NewGraph()
	g.Add(a, []uuid.UUID{b})
	g.Add(b, []uuid.UUID{a}) // rejected

	// b can still be registered with acyclic deps afterward.
	if err := g.Add(b, nil); err != nil {
		t.Errorf("unexpected error after rollback: %v", err)
	}
}

func TestTopoOrderChain(t *testing.T) {
	// A depends on B, B depends on C, C has no dependencies.
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g := NewGraph()
	if err := g.Add(a, []uuid.UUID{b}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := g.Add(b, []uuid.UUID{c}); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := g.Add(c, nil); err != nil {
		t.Fatalf("add c: %v", err)
	}

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(order))
	}
	pos := make(map[uuid.UUID]int, 3)
	for i, id := range order {
		pos[id] = i
	}
	if !(pos[c] < pos[b] && pos[b] < pos[a]) {
		t.Errorf("expected order c, b, a; got positions c=%d b=%d a=%d", pos[c], pos[b], pos[a])
	}
}

func TestTopoOrderSkipsPlainDependencies(t *testing.T) {
	// A formula depending on a non-formula test: only the formula appears.
	formula, plain := uuid.New(), uuid.New()
	g := NewGraph()
	if err := g.Add(formula, []uuid.UUID{plain}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 1 || order[0] != formula {
		t.Errorf("expected only the formula test in order, got %v", order)
	}
}
