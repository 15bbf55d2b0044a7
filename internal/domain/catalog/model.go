package catalog

import (
	"time"

	"github.com/google/uuid"
)

// TestType discriminates how a test's result is captured and rendered.
type TestType string

const (
	TestSingle   TestType = "single"
	TestMulti    TestType = "multi"
	TestNested   TestType = "nested"
	TestDocument TestType = "document"
)

// ItemKind discriminates catalog entries: a bare test, a panel of tests, or
// a package that may bundle panels as well as tests.
type ItemKind string

const (
	KindTest    ItemKind = "test"
	KindPanel   ItemKind = "panel"
	KindPackage ItemKind = "package"
)

// Parameter is one reportable field of a test, in declaration order.
type Parameter struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	InputType string `json:"input_type"`
	GroupBy   string `json:"group_by,omitempty"`
}

// TestDefinition is the catalog entry for a single orderable test.
type TestDefinition struct {
	Type       TestType    `json:"type"`
	ShortName  string      `json:"short_name"`
	Unit       string      `json:"unit"`
	Parameters []Parameter `json:"parameters"`
	IsFormula  bool        `json:"is_formula"`
}

// Item is a catalog document: a test, panel, or package. Panels and packages
// reference their contained items by id; the graph may be arbitrarily nested
// and is treated as potentially cyclic by consumers.
type Item struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Kind           ItemKind        `db:"kind" json:"kind"`
	Name           string          `db:"name" json:"name"`
	Interpretation string          `db:"interpretation" json:"interpretation,omitempty"`
	Test           *TestDefinition `db:"test" json:"test,omitempty"`
	Children       []uuid.UUID     `db:"children" json:"children,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Sex is the patient sex a reference range applies to.
type Sex string

const (
	SexAny    Sex = "any"
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// AgeUnit is the unit an age-window bound is expressed in.
type AgeUnit string

const (
	UnitDays   AgeUnit = "days"
	UnitMonths AgeUnit = "months"
	UnitYears  AgeUnit = "years"
)

// RangeKind discriminates numeric interval ranges from verbatim text ranges.
type RangeKind string

const (
	RangeNumeric RangeKind = "numeric"
	RangeText    RangeKind = "text"
)

// ReferenceRange is one normal-range rule for a test, optionally scoped to a
// single parameter of a multi/nested test. Multiple ranges may exist per
// test/parameter; resolution picks the applicable one per patient.
type ReferenceRange struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TestID      uuid.UUID `db:"test_id" json:"test_id"`
	Parameter   string    `db:"parameter" json:"parameter,omitempty"`
	Kind        RangeKind `db:"kind" json:"kind"`
	Sex         Sex       `db:"sex" json:"sex"`
	MinAge      float64   `db:"min_age" json:"min_age"`
	MinUnit     AgeUnit   `db:"min_unit" json:"min_unit"`
	MaxAge      float64   `db:"max_age" json:"max_age"`
	MaxUnit     AgeUnit   `db:"max_unit" json:"max_unit"`
	Lower       float64   `db:"lower" json:"lower"`
	Upper       float64   `db:"upper" json:"upper"`
	TextValue   string    `db:"text_value" json:"text_value,omitempty"`
	DisplayText string    `db:"display_text" json:"display_text,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FormulaDependency names one test whose value a formula expression reads.
type FormulaDependency struct {
	TestID    uuid.UUID `json:"test_id"`
	TestName  string    `json:"test_name"`
	ShortName string    `json:"short_name"`
}

// Formula belongs to exactly one test; its expression references dependency
// tests by short name.
type Formula struct {
	ID           uuid.UUID           `db:"id" json:"id"`
	TestID       uuid.UUID           `db:"test_id" json:"test_id"`
	Expression   string              `db:"expression" json:"expression"`
	Dependencies []FormulaDependency `db:"dependencies" json:"dependencies"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}
