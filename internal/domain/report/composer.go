package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medilab/lims/internal/domain/cases"
	"github.com/medilab/lims/internal/domain/results"
)

// UngroupedName heads parameters whose test declares no grouping.
const UngroupedName = "Ungrouped"

// Compose lays out a case's result sheet as a printable document: one page
// per category, sections in sheet order, values flagged against their
// numeric references per the branch settings.
func Compose(cs *cases.Case, r *results.Result, settings PrintSettings,
	letterhead *Letterhead, signatures []Signature) *DocumentModel {

	doc := &DocumentModel{
		CaseID:     cs.ID,
		Patient:    patientBlock(cs),
		Letterhead: letterhead,
		ComposedAt: time.Now().UTC(),
	}
	if settings.General.ShowEndNote {
		doc.EndNote = settings.General.EndNote
	}
	for _, rc := range r.Categories {
		page := Page{Category: rc.Name, Signatures: signatures}
		for i := range rc.Tests {
			page.Sections = append(page.Sections, composeSection(&rc.Tests[i], settings))
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func patientBlock(cs *cases.Case) PatientBlock {
	return PatientBlock{
		Name:  cs.Patient.Name,
		Sex:   string(cs.Patient.Sex),
		Age:   formatAge(cs.Patient.AgeDays),
		RegNo: cs.RegNo,
		DCN:   cs.DCN,
		RefBy: cs.Patient.RefBy,
		Date:  cs.CreatedAt.Format("02-Jan-2006"),
	}
}

// formatAge renders an age in the largest sensible unit, matching the units
// reference ranges are defined in.
func formatAge(days float64) string {
	switch {
	case days >= 365:
		return fmt.Sprintf("%d Years", int(days/365))
	case days >= 30:
		return fmt.Sprintf("%d Months", int(days/30))
	default:
		return fmt.Sprintf("%d Days", int(days))
	}
}

// composeSection walks the result subtree pre-order: the node itself, then
// its nested tests in sheet order.
func composeSection(item *results.ResultItem, settings PrintSettings) Section {
	s := Section{
		Title:          item.Name,
		IsPanel:        item.IsPanel,
		IsPackage:      item.IsPackage,
		Interpretation: item.Interpretation,
	}
	if len(item.Params) > 0 {
		s.Groups = groupParams(item.Params, settings)
	}
	for i := range item.Tests {
		s.Sections = append(s.Sections, composeSection(&item.Tests[i], settings))
	}
	return s
}

// groupParams buckets rows by their declared group in first-seen order.
// Parameters without a group go under "Ungrouped", which sorts wherever it
// is first encountered like any other group.
func groupParams(params []results.ResultParam, settings PrintSettings) []ParamGroup {
	byName := make(map[string]int)
	var groups []ParamGroup
	for _, p := range params {
		name := p.GroupBy
		if name == "" {
			name = UngroupedName
		}
		idx, ok := byName[name]
		if !ok {
			idx = len(groups)
			byName[name] = idx
			groups = append(groups, ParamGroup{Name: name})
		}
		groups[idx].Rows = append(groups[idx].Rows, composeRow(p, settings))
	}
	return groups
}

func composeRow(p results.ResultParam, settings PrintSettings) ParamRow {
	row := ParamRow{
		Name:      p.Name,
		Value:     p.Value,
		Unit:      p.Unit,
		Reference: p.Reference,
	}
	if !settings.General.UseHLMarkers {
		return row
	}
	row.Flag = flagValue(p.Value, p.Reference)
	if row.Flag != FlagNone {
		row.Bold = settings.Design.BoldAbnormal
		row.Red = settings.Design.RedAbnormal
	}
	return row
}

// flagValue compares a numeric value against a "lower-upper" reference
// display. Non-numeric values, text references, and the no-reference
// sentinel never flag.
func flagValue(value, reference string) Flag {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return FlagNone
	}
	lower, upper, ok := parseNumericReference(reference)
	if !ok {
		return FlagNone
	}
	switch {
	case v < lower:
		return FlagLow
	case v > upper:
		return FlagHigh
	default:
		return FlagNone
	}
}

// parseNumericReference splits a "lower-upper" display into its bounds. The
// split is on the last '-' so negative lower bounds still parse.
func parseNumericReference(ref string) (lower, upper float64, ok bool) {
	ref = strings.TrimSpace(ref)
	cut := strings.LastIndex(ref, "-")
	if cut <= 0 {
		return 0, 0, false
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(ref[:cut]), 64)
	if err != nil {
		return 0, 0, false
	}
	upper, err = strconv.ParseFloat(strings.TrimSpace(ref[cut+1:]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lower, upper, true
}
