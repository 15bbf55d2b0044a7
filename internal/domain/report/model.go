package report

import (
	"time"

	"github.com/google/uuid"
)

// GeneralSettings controls report-wide behaviour.
type GeneralSettings struct {
	UseHLMarkers bool `json:"use_hl_markers"`
	ShowMethod   bool `json:"show_method"`
	ShowEndNote  bool `json:"show_end_note"`
	EndNote      string `json:"end_note,omitempty"`
}

// DesignSettings controls how abnormal values render. Bold and red are
// independent switches.
type DesignSettings struct {
	BoldAbnormal bool   `json:"bold_abnormal"`
	RedAbnormal  bool   `json:"red_abnormal"`
	FontFamily   string `json:"font_family,omitempty"`
	FontSize     int    `json:"font_size,omitempty"`
}

// PrintSettings is the per-branch report configuration.
type PrintSettings struct {
	BranchID  string          `json:"branch_id"`
	General   GeneralSettings `json:"general"`
	Design    DesignSettings  `json:"design"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Letterhead is the branch's report stationery.
type Letterhead struct {
	BranchID  string `json:"branch_id"`
	HeaderURL string `json:"header_url,omitempty"`
	FooterURL string `json:"footer_url,omitempty"`
	MarginTop int    `json:"margin_top"`
	MarginBot int    `json:"margin_bot"`
}

// Signature is one signing authority printed at the foot of a report page.
type Signature struct {
	ID            uuid.UUID `json:"id"`
	BranchID      string    `json:"branch_id"`
	Name          string    `json:"name"`
	Qualification string    `json:"qualification,omitempty"`
	Designation   string    `json:"designation,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	SortOrder     int       `json:"sort_order"`
}

// Flag marks a value outside its numeric reference interval.
type Flag string

const (
	FlagNone Flag = ""
	FlagHigh Flag = "high"
	FlagLow  Flag = "low"
)

// ParamRow is one printed line of a report: a parameter, its value, and the
// styling derived from the reference comparison.
type ParamRow struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Unit      string `json:"unit,omitempty"`
	Reference string `json:"reference"`
	Flag      Flag   `json:"flag,omitempty"`
	Bold      bool   `json:"bold"`
	Red       bool   `json:"red"`
}

// ParamGroup gathers a test's rows under one printed sub-heading.
type ParamGroup struct {
	Name string     `json:"name"`
	Rows []ParamRow `json:"rows"`
}

// Section is one test, panel, or package on a page; panels and packages
// nest their member sections.
type Section struct {
	Title          string       `json:"title"`
	IsPanel        bool         `json:"is_panel"`
	IsPackage      bool         `json:"is_package"`
	Groups         []ParamGroup `json:"groups,omitempty"`
	Interpretation string       `json:"interpretation,omitempty"`
	Sections       []Section    `json:"sections,omitempty"`
}

// Page is one printed page: a category heading with its sections, the
// letterhead and signatures repeated per page.
type Page struct {
	Category   string      `json:"category"`
	Sections   []Section   `json:"sections"`
	Signatures []Signature `json:"signatures,omitempty"`
}

// PatientBlock is the demographics header printed on every page.
type PatientBlock struct {
	Name  string `json:"name"`
	Sex   string `json:"sex"`
	Age   string `json:"age"`
	RegNo string `json:"reg_no"`
	DCN   string `json:"dcn"`
	RefBy string `json:"ref_by,omitempty"`
	Date  string `json:"date"`
}

// DocumentModel is the fully composed report, ready for rendering.
type DocumentModel struct {
	CaseID     uuid.UUID    `json:"case_id"`
	Patient    PatientBlock `json:"patient"`
	Pages      []Page       `json:"pages"`
	Letterhead *Letterhead  `json:"letterhead,omitempty"`
	EndNote    string       `json:"end_note,omitempty"`
	ComposedAt time.Time    `json:"composed_at"`
}
