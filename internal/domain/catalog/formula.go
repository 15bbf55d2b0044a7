package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Formula evaluation failure modes. A failed formula leaves its parameter
// blank; it never aborts the rest of a result build.
var (
	ErrMissingDependency = errors.New("missing dependency value")
	ErrCyclicDependency  = errors.New("cyclic formula dependency")
	ErrDivisionByZero    = errors.New("division by zero")
)

// Expr is a parsed arithmetic expression over named test tokens.
type Expr interface {
	eval(values map[string]float64) (float64, error)
	collectTokens(set map[string]bool)
}

type numberExpr float64

func (n numberExpr) eval(map[string]float64) (float64, error) { return float64(n), nil }
func (n numberExpr) collectTokens(map[string]bool)            {}

type tokenExpr string

func (t tokenExpr) eval(values map[string]float64) (float64, error) {
	v, ok := values[string(t)]
	if !ok {
		return 0, fmt.Errorf("token %q: %w", string(t), ErrMissingDependency)
	}
	return v, nil
}

func (t tokenExpr) collectTokens(set map[string]bool) { set[string(t)] = true }

type binaryExpr struct {
	op          byte
	left, right Expr
}

func (b binaryExpr) eval(values map[string]float64) (float64, error) {
	l, err := b.left.eval(values)
	if err != nil {
		return 0, err
	}
	r, err := b.right.eval(values)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown operator %q", string(b.op))
}

func (b binaryExpr) collectTokens(set map[string]bool) {
	b.left.collectTokens(set)
	b.right.collectTokens(set)
}

type negExpr struct{ inner Expr }

func (n negExpr) eval(values map[string]float64) (float64, error) {
	v, err := n.inner.eval(values)
	return -v, err
}

func (n negExpr) collectTokens(set map[string]bool) { n.inner.collectTokens(set) }

// Evaluate resolves a parsed expression against a token-to-value mapping.
func Evaluate(e Expr, values map[string]float64) (float64, error) {
	return e.eval(values)
}

// Tokens returns the distinct test tokens an expression references.
func Tokens(e Expr) []string {
	set := make(map[string]bool)
	e.collectTokens(set)
	tokens := make([]string, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	return tokens
}

// -- Parser --

// lexeme kinds produced by the scanner.
type lexKind int

const (
	lexNumber lexKind = iota
	lexIdent
	lexOp
	lexLParen
	lexRParen
)

type lexeme struct {
	kind lexKind
	text string
}

func scan(input string) ([]lexeme, error) {
	var out []lexeme
	i := 0
	for i < len(input) {
		ch := rune(input[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '(':
			out = append(out, lexeme{lexLParen, "("})
			i++
		case ch == ')':
			out = append(out, lexeme{lexRParen, ")"})
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			out = append(out, lexeme{lexOp, string(ch)})
			i++
		case unicode.IsDigit(ch) || ch == '.':
			j := i
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			out = append(out, lexeme{lexNumber, input[i:j]})
			i = j
		case unicode.IsLetter(ch) || ch == '_':
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			out = append(out, lexeme{lexIdent, input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in expression", string(ch))
		}
	}
	return out, nil
}

type parser struct {
	lexemes []lexeme
	pos     int
}

// ParseExpression parses an arithmetic expression with `+ - * / ( )`,
// numeric literals, and test-token identifiers. Standard precedence,
// left-to-right associativity within a precedence level.
func ParseExpression(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	lexemes, err := scan(input)
	if err != nil {
		return nil, err
	}
	p := &parser{lexemes: lexemes}
	expr, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.lexemes) {
		return nil, fmt.Errorf("unexpected %q at end of expression", p.lexemes[p.pos].text)
	}
	return expr, nil
}

func (p *parser) peek() (lexeme, bool) {
	if p.pos >= len(p.lexemes) {
		return lexeme{}, false
	}
	return p.lexemes[p.pos], true
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		lx, ok := p.peek()
		if !ok || lx.kind != lexOp || (lx.text != "+" && lx.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: lx.text[0], left: left, right: right}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		lx, ok := p.peek()
		if !ok || lx.kind != lexOp || (lx.text != "*" && lx.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: lx.text[0], left: left, right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if lx, ok := p.peek(); ok && lx.kind == lexOp && lx.text == "-" {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	lx, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch lx.kind {
	case lexNumber:
		p.pos++
		v, err := strconv.ParseFloat(lx.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", lx.text)
		}
		return numberExpr(v), nil
	case lexIdent:
		p.pos++
		return tokenExpr(lx.text), nil
	case lexLParen:
		p.pos++
		expr, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != lexRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return expr, nil
	}
	return nil, fmt.Errorf("unexpected %q in expression", lx.text)
}

// -- Dependency graph --

// Graph tracks which formula test depends on which tests. It rejects edges
// that would close a cycle, so cyclic definitions never reach evaluation.
type Graph struct {
	deps map[uuid.UUID][]uuid.UUID
}

func NewGraph() *Graph {
	return &Graph{deps: make(map[uuid.UUID][]uuid.UUID)}
}

// Add registers a formula test and its dependency edges. If the resulting
// graph would contain a cycle the edges are rolled back and
// ErrCyclicDependency is returned.
func (g *Graph) Add(testID uuid.UUID, deps []uuid.UUID) error {
	g.deps[testID] = deps
	if g.hasCycle() {
		delete(g.deps, testID)
		return fmt.Errorf("formula for test %s: %w", testID, ErrCyclicDependency)
	}
	return nil
}

const (
	colorWhite = 0 // unvisited
	colorGray  = 1 // in progress
	colorBlack = 2 // done
)

func (g *Graph) hasCycle() bool {
	color := make(map[uuid.UUID]int, len(g.deps))
	var visit func(id uuid.UUID) bool
	visit = func(id uuid.UUID) bool {
		color[id] = colorGray
		for _, dep := range g.deps[id] {
			switch color[dep] {
			case colorGray:
				return true
			case colorWhite:
				if visit(dep) {
					return true
				}
			}
		}
		color[id] = colorBlack
		return false
	}
	for id := range g.deps {
		if color[id] == colorWhite && visit(id) {
			return true
		}
	}
	return false
}

// TopoOrder returns formula test ids with every dependency ordered before
// its dependents. Only ids registered via Add appear in the result; plain
// dependency tests do not. Ties among independent formulas are arbitrary.
func (g *Graph) TopoOrder() ([]uuid.UUID, error) {
	color := make(map[uuid.UUID]int, len(g.deps))
	var order []uuid.UUID
	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		color[id] = colorGray
		for _, dep := range g.deps[id] {
			if _, isFormula := g.deps[dep]; !isFormula {
				continue
			}
			switch color[dep] {
			case colorGray:
				return ErrCyclicDependency
			case colorWhite:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = colorBlack
		order = append(order, id)
		return nil
	}
	for id := range g.deps {
		if color[id] == colorWhite {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}
