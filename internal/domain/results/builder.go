package results

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medilab/lims/internal/domain/cases"
	"github.com/medilab/lims/internal/domain/catalog"
)

// CatalogLookup is the slice of the catalog the builder reads. Satisfied by
// *catalog.Service.
type CatalogLookup interface {
	BatchItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Item, error)
	RangesByTests(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID][]catalog.ReferenceRange, error)
}

// Builder expands a case's ordered item ids into the enterable result tree,
// annotating every parameter with the reference range resolved for the
// patient.
type Builder struct {
	catalog CatalogLookup
}

func NewBuilder(cat CatalogLookup) *Builder {
	return &Builder{catalog: cat}
}

// Build constructs the result sheet for a case. Catalog problems (missing
// items, cyclic panel/package references) are recorded as issues and skip
// only the offending subtree; the rest of the sheet still builds.
func (b *Builder) Build(ctx context.Context, cs *cases.Case) (*Result, error) {
	items, err := b.fetchClosure(ctx, cs.ItemIDs())
	if err != nil {
		return nil, err
	}
	testIDs := make([]uuid.UUID, 0, len(items))
	for id, item := range items {
		if item.Test != nil {
			testIDs = append(testIDs, id)
		}
	}
	ranges, err := b.catalog.RangesByTests(ctx, testIDs)
	if err != nil {
		return nil, fmt.Errorf("load reference ranges: %w", err)
	}

	r := &Result{
		ID:       uuid.New(),
		CaseID:   cs.ID,
		BranchID: cs.BranchID,
		RegNo:    cs.RegNo,
		Patient:  cs.Patient,
		Status:   StatusPending,
	}
	for _, cat := range cs.Categories {
		rc := ResultCategory{Name: cat}
		for _, id := range cs.Tests[cat] {
			visited := make(map[uuid.UUID]bool)
			if item := b.buildItem(id, items, ranges, cs.Patient, visited, r); item != nil {
				rc.Tests = append(rc.Tests, *item)
			}
		}
		r.Categories = append(r.Categories, rc)
	}
	r.Status = r.ComputeStatus()
	return r, nil
}

// fetchClosure loads the ordered items and, iteratively, every descendant
// they reference, batching one catalog round-trip per depth level.
func (b *Builder) fetchClosure(ctx context.Context, roots []uuid.UUID) (map[uuid.UUID]*catalog.Item, error) {
	all := make(map[uuid.UUID]*catalog.Item)
	pending := roots
	for len(pending) > 0 {
		batch, err := b.catalog.BatchItems(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("load catalog items: %w", err)
		}
		var next []uuid.UUID
		for id, item := range batch {
			if _, seen := all[id]; seen {
				continue
			}
			all[id] = item
			for _, child := range item.Children {
				if _, seen := all[child]; !seen {
					next = append(next, child)
				}
			}
		}
		pending = next
	}
	return all, nil
}

// buildItem expands one catalog item. visited holds the ids on the current
// root-to-node path; revisiting one means the catalog graph loops, so the
// node is dropped and the issue recorded.
func (b *Builder) buildItem(id uuid.UUID, items map[uuid.UUID]*catalog.Item,
	ranges map[uuid.UUID][]catalog.ReferenceRange, patient cases.Patient,
	visited map[uuid.UUID]bool, r *Result) *ResultItem {

	if visited[id] {
		r.Issues = append(r.Issues, BuildIssue{TestID: id, Reason: "cyclic catalog reference"})
		return nil
	}
	item, ok := items[id]
	if !ok {
		r.Issues = append(r.Issues, BuildIssue{TestID: id, Reason: "catalog item not found"})
		return nil
	}
	visited[id] = true
	defer delete(visited, id)

	node := &ResultItem{
		TestID:         item.ID,
		Name:           item.Name,
		IsPanel:        item.Kind == catalog.KindPanel,
		IsPackage:      item.Kind == catalog.KindPackage,
		Interpretation: item.Interpretation,
	}
	if item.Test != nil {
		node.IsFormula = item.Test.IsFormula
		node.ShortName = item.Test.ShortName
		node.Params = buildParams(item, ranges[item.ID], patient)
	}
	for _, childID := range item.Children {
		if child := b.buildItem(childID, items, ranges, patient, visited, r); child != nil {
			node.Tests = append(node.Tests, *child)
		}
	}
	return node
}

// buildParams lays out the enterable fields for a test. Single-value tests
// get one implicit parameter named after the test; multi/nested tests get
// one per declared parameter; document tests get none.
func buildParams(item *catalog.Item, rr []catalog.ReferenceRange, patient cases.Patient) []ResultParam {
	def := item.Test
	switch def.Type {
	case catalog.TestDocument:
		return nil
	case catalog.TestSingle:
		return []ResultParam{{
			Name:      item.Name,
			Unit:      def.Unit,
			Reference: catalog.ResolveForParameter(rr, "", patient.Sex, patient.AgeDays).DisplayText,
		}}
	default:
		params := make([]ResultParam, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			params = append(params, ResultParam{
				Name:      p.Name,
				Unit:      p.Unit,
				GroupBy:   p.GroupBy,
				Reference: catalog.ResolveForParameter(rr, p.Name, patient.Sex, patient.AgeDays).DisplayText,
			})
		}
		return params
	}
}

// MergeValues copies entered values from a previous sheet into a freshly
// built one, matching by test identity and parameter name. Parameters new to
// the rebuilt sheet stay empty; values for tests no longer ordered are
// dropped.
func MergeValues(fresh, previous *Result) {
	old := make(map[uuid.UUID]map[string]string)
	previous.walk(func(item *ResultItem) {
		if len(item.Params) == 0 {
			return
		}
		vals := make(map[string]string, len(item.Params))
		for _, p := range item.Params {
			if p.Value != "" {
				vals[p.Name] = p.Value
			}
		}
		old[item.TestID] = vals
	})
	fresh.walk(func(item *ResultItem) {
		vals, ok := old[item.TestID]
		if !ok {
			return
		}
		for i := range item.Params {
			if v, ok := vals[item.Params[i].Name]; ok {
				item.Params[i].Value = v
			}
		}
	})
	fresh.Status = fresh.ComputeStatus()
}
