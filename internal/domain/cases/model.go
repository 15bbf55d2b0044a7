package cases

import (
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lims/internal/domain/catalog"
)

// CaseStatus is the billing status of a case. "due" and "no due" are derived
// from the payment figures; "cancelled" and "refund" are administrative
// overrides that stick until the payment is edited again.
type CaseStatus string

const (
	StatusDue       CaseStatus = "due"
	StatusNoDue     CaseStatus = "no due"
	StatusCancelled CaseStatus = "cancelled"
	StatusRefund    CaseStatus = "refund"
)

// IsAdminOverride reports whether the status was set by hand rather than
// derived from the payment balance.
func (s CaseStatus) IsAdminOverride() bool {
	return s == StatusCancelled || s == StatusRefund
}

// ReportStatus tracks the case through the reporting workflow.
type ReportStatus string

const (
	ReportNew        ReportStatus = "New"
	ReportInProgress ReportStatus = "In Progress"
	ReportSignedOff  ReportStatus = "Signed Off"
)

// Category names one diagnostic service line a case orders tests under.
// Each maps to a DCN prefix; see dcnPrefixes.
const (
	CategoryLab       = "LAB"
	CategoryTMT       = "TMT"
	CategoryECG       = "ECG"
	CategoryEcho      = "ECHO"
	CategoryUSG       = "USG"
	CategoryXRay      = "XRAY"
	CategoryOutsource = "OUTSOURCE"
	CategoryOthers    = "OTHERS"
)

// Patient is the demographic snapshot taken at registration. Cases keep
// their own copy so later edits to a patient record never rewrite an issued
// report.
type Patient struct {
	Name    string      `json:"name"`
	Sex     catalog.Sex `json:"sex"`
	AgeDays float64     `json:"age_days"`
	Phone   string      `json:"phone,omitempty"`
	Email   string      `json:"email,omitempty"`
	Address string      `json:"address,omitempty"`
	RefBy   string      `json:"ref_by,omitempty"`
}

// Payment holds the monetary figures for a case. Balance and the derived
// status are recomputed from these whenever they change.
type Payment struct {
	Total    float64 `json:"total"`
	Discount float64 `json:"discount"`
	Received float64 `json:"received"`
	Balance  float64 `json:"balance"`
	Mode     string  `json:"mode,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// WhatsAppTriggers records which outbound notifications have been fired for
// the case, so re-saving a case never re-sends a message.
type WhatsAppTriggers struct {
	Registered  bool `json:"registered"`
	ReportReady bool `json:"report_ready"`
}

// Case is a patient visit: the registered identity, the tests ordered per
// category, and the money involved. RegNo and DCN are assigned once at
// creation and never change afterwards.
type Case struct {
	ID           uuid.UUID              `json:"id"`
	BranchID     string                 `json:"branch_id"`
	RegNo        string                 `json:"reg_no"`
	DCN          string                 `json:"dcn"`
	Patient      Patient                `json:"patient"`
	Tests        map[string][]uuid.UUID `json:"tests"` // category -> ordered catalog item ids
	Categories   []string               `json:"categories"`
	Payment      Payment                `json:"payment"`
	Status       CaseStatus             `json:"status"`
	ReportStatus ReportStatus           `json:"report_status"`
	Triggers     WhatsAppTriggers       `json:"whatsapp_triggers"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ItemIDs flattens the ordered tests across every category, preserving
// category order then insertion order within each.
func (c *Case) ItemIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, cat := range c.Categories {
		ids = append(ids, c.Tests[cat]...)
	}
	return ids
}
