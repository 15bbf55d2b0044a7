package catalog

import "strconv"

// NoReferenceDisplay is the placeholder shown when no range matches a
// patient. Absent reference data never blocks entry or report generation.
const NoReferenceDisplay = "-"

// Resolved is the outcome of reference-range resolution for one parameter.
type Resolved struct {
	Matched     bool      `json:"matched"`
	Kind        RangeKind `json:"kind,omitempty"`
	Lower       float64   `json:"lower,omitempty"`
	Upper       float64   `json:"upper,omitempty"`
	TextValue   string    `json:"text_value,omitempty"`
	DisplayText string    `json:"display_text"`
}

// ageUnitDays converts an age bound to days. Months and years use the fixed
// clinical approximations the range definitions are written against.
func ageUnitDays(unit AgeUnit) float64 {
	switch unit {
	case UnitMonths:
		return 30
	case UnitYears:
		return 365
	default:
		return 1
	}
}

func (r ReferenceRange) minAgeDays() float64 { return r.MinAge * ageUnitDays(r.MinUnit) }
func (r ReferenceRange) maxAgeDays() float64 { return r.MaxAge * ageUnitDays(r.MaxUnit) }

func (r ReferenceRange) matches(sex Sex, ageDays float64) bool {
	if r.Sex != SexAny && r.Sex != sex {
		return false
	}
	return r.minAgeDays() <= ageDays && ageDays <= r.maxAgeDays()
}

// windowDays is the width of the range's age window, used as the
// specificity tie-break (narrower wins).
func (r ReferenceRange) windowDays() float64 {
	return r.maxAgeDays() - r.minAgeDays()
}

// ResolveRange selects the applicable range for a patient from the
// candidates. Tie-break order: exact sex over any, then narrowest age
// window, then the most recently defined (later CreatedAt, falling back to
// later list position). No match yields the "-" sentinel.
func ResolveRange(ranges []ReferenceRange, sex Sex, ageDays float64) Resolved {
	bestIdx := -1
	for i, r := range ranges {
		if !r.matches(sex, ageDays) {
			continue
		}
		if bestIdx < 0 || betterMatch(r, i, ranges[bestIdx], bestIdx, sex) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Resolved{DisplayText: NoReferenceDisplay}
	}
	return resolved(ranges[bestIdx])
}

// ResolveForParameter filters candidates to those scoped to the given
// parameter (or unscoped) before resolving.
func ResolveForParameter(ranges []ReferenceRange, parameter string, sex Sex, ageDays float64) Resolved {
	var candidates []ReferenceRange
	for _, r := range ranges {
		if r.Parameter == "" || r.Parameter == parameter {
			candidates = append(candidates, r)
		}
	}
	return ResolveRange(candidates, sex, ageDays)
}

func betterMatch(a ReferenceRange, aIdx int, b ReferenceRange, bIdx int, sex Sex) bool {
	aExact := a.Sex == sex
	bExact := b.Sex == sex
	if aExact != bExact {
		return aExact
	}
	aw, bw := a.windowDays(), b.windowDays()
	if aw != bw {
		return aw < bw
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return aIdx > bIdx
}

func resolved(r ReferenceRange) Resolved {
	out := Resolved{
		Matched:     true,
		Kind:        r.Kind,
		DisplayText: r.DisplayText,
	}
	switch r.Kind {
	case RangeText:
		out.TextValue = r.TextValue
		if out.DisplayText == "" {
			out.DisplayText = r.TextValue
		}
	default:
		out.Lower = r.Lower
		out.Upper = r.Upper
		if out.DisplayText == "" {
			out.DisplayText = formatBound(r.Lower) + "-" + formatBound(r.Upper)
		}
	}
	return out
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
