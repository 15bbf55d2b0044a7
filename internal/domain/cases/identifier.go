package cases

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/medilab/lims/internal/platform/counter"
)

// regNo space: nine digits starting with 7.
const (
	regNoBase = 700_000_000
	regNoSpan = 100_000_000
)

// ErrRegNoExhausted is returned when the generator cannot find an unused
// registration number within its attempt budget.
var ErrRegNoExhausted = errors.New("registration number space exhausted for branch")

// dcnPrefixes maps a case category to its diagnostic case number prefix.
// Categories cover distinct modalities, so most get a single letter; ECHO
// and OTHERS need two to stay unambiguous against ECG and OUTSOURCE.
var dcnPrefixes = map[string]string{
	CategoryLab:       "L",
	CategoryTMT:       "T",
	CategoryECG:       "E",
	CategoryEcho:      "EH",
	CategoryUSG:       "U",
	CategoryXRay:      "X",
	CategoryOutsource: "O",
	CategoryOthers:    "OT",
}

// RegNoChecker answers whether a registration number is already taken within
// a branch. Backed by the case repository in production.
type RegNoChecker interface {
	RegNoExists(ctx context.Context, branchID, regNo string) (bool, error)
}

// IdentifierGenerator assigns registration numbers and diagnostic case
// numbers. RegNos are random draws checked for uniqueness per branch; DCNs
// are sequential per category from the shared counter store.
type IdentifierGenerator struct {
	checker     RegNoChecker
	counters    counter.Store
	maxAttempts int
	randInt     func(n int) int // swappable for deterministic tests
}

func NewIdentifierGenerator(checker RegNoChecker, counters counter.Store, maxAttempts int) *IdentifierGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 1000
	}
	return &IdentifierGenerator{
		checker:     checker,
		counters:    counters,
		maxAttempts: maxAttempts,
		randInt:     rand.IntN,
	}
}

// GenerateRegNo draws random nine-digit numbers in the 7xx range until one is
// unused in the branch. The space holds 100 million numbers per branch, so in
// practice the first draw wins; the attempt cap guards pathological fill.
func (g *IdentifierGenerator) GenerateRegNo(ctx context.Context, branchID string) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%d", regNoBase+g.randInt(regNoSpan))
		taken, err := g.checker.RegNoExists(ctx, branchID, candidate)
		if err != nil {
			return "", fmt.Errorf("check reg no: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrRegNoExhausted
}

// GenerateDCN produces one numbered token per known category, joined with
// ", ". Each category advances its own counter, so e.g. the first LAB case
// ever gets "L01" and a later LAB+USG case might get "L02, U01". Categories
// without a prefix mapping are skipped. Passing no known categories yields
// the empty string.
func (g *IdentifierGenerator) GenerateDCN(ctx context.Context, categories []string) (string, error) {
	var parts []string
	for _, cat := range categories {
		prefix, ok := dcnPrefixes[cat]
		if !ok {
			continue
		}
		n, err := g.counters.IncrementAndGet(ctx, "dcn:"+cat)
		if err != nil {
			return "", fmt.Errorf("dcn counter for %s: %w", cat, err)
		}
		parts = append(parts, fmt.Sprintf("%s%02d", prefix, n))
	}
	return strings.Join(parts, ", "), nil
}
