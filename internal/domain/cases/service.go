package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns the case lifecycle: registration with identifier assignment,
// edits that preserve the identifiers, and the payment/status bookkeeping.
type Service struct {
	repo Repository
	ids  *IdentifierGenerator
	log  zerolog.Logger
}

func NewService(repo Repository, ids *IdentifierGenerator, log zerolog.Logger) *Service {
	return &Service{repo: repo, ids: ids, log: log}
}

// CreateInput is the registration payload. CreatedAt may be back-dated for
// walk-in entries keyed in after the fact; zero means now.
type CreateInput struct {
	BranchID   string
	Patient    Patient
	Tests      map[string][]uuid.UUID
	Categories []string
	Payment    Payment
	CreatedAt  time.Time
}

func (in *CreateInput) validate() error {
	if in.BranchID == "" {
		return fmt.Errorf("branch_id is required")
	}
	if in.Patient.Name == "" {
		return fmt.Errorf("patient name is required")
	}
	if in.Payment.Total < 0 || in.Payment.Discount < 0 || in.Payment.Received < 0 {
		return fmt.Errorf("payment figures must not be negative")
	}
	for cat := range in.Tests {
		if _, ok := dcnPrefixes[cat]; !ok {
			return fmt.Errorf("unknown category %q", cat)
		}
	}
	return nil
}

// Create registers a case: assigns the registration number and diagnostic
// case number exactly once, snapshots the patient, and derives the billing
// status from the payment figures.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Case, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	regNo, err := s.ids.GenerateRegNo(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	dcn, err := s.ids.GenerateDCN(ctx, in.Categories)
	if err != nil {
		return nil, err
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	c := &Case{
		ID:           uuid.New(),
		BranchID:     in.BranchID,
		RegNo:        regNo,
		DCN:          dcn,
		Patient:      in.Patient,
		Tests:        in.Tests,
		Categories:   in.Categories,
		Payment:      in.Payment,
		ReportStatus: ReportNew,
		CreatedAt:    createdAt,
	}
	c.Recalculate(true)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store case: %w", err)
	}
	s.log.Info().
		Str("case_id", c.ID.String()).
		Str("branch_id", c.BranchID).
		Str("reg_no", c.RegNo).
		Str("dcn", c.DCN).
		Msg("case registered")
	return c, nil
}

// UpdateInput carries the editable fields of a case. Identifiers are not
// among them: RegNo and DCN never change after registration. Nil pointers
// leave the corresponding field untouched.
type UpdateInput struct {
	Patient    *Patient
	Tests      map[string][]uuid.UUID
	Categories []string
	Payment    *Payment
	CreatedAt  *time.Time
	Triggers   *WhatsAppTriggers
}

// Update edits a case in place. Editing the payment re-derives the billing
// status, clearing any cancelled/refund override; other edits leave the
// status alone.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Patient != nil {
		c.Patient = *in.Patient
	}
	if in.Tests != nil {
		for cat := range in.Tests {
			if _, ok := dcnPrefixes[cat]; !ok {
				return nil, fmt.Errorf("unknown category %q", cat)
			}
		}
		c.Tests = in.Tests
	}
	if in.Categories != nil {
		c.Categories = in.Categories
	}
	if in.CreatedAt != nil {
		c.CreatedAt = *in.CreatedAt
	}
	if in.Triggers != nil {
		c.Triggers = *in.Triggers
	}
	paymentEdited := in.Payment != nil
	if paymentEdited {
		if in.Payment.Total < 0 || in.Payment.Discount < 0 || in.Payment.Received < 0 {
			return nil, fmt.Errorf("payment figures must not be negative")
		}
		c.Payment = *in.Payment
	}
	c.Recalculate(paymentEdited)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("store case: %w", err)
	}
	return c, nil
}

// SetStatus applies an administrative status override (cancel, refund) or
// reverts to the payment-derived status.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status CaseStatus) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch status {
	case StatusCancelled, StatusRefund:
		c.Status = status
	case StatusDue, StatusNoDue:
		c.Status = DeriveStatus(ComputeBalance(c.Payment))
	default:
		return nil, fmt.Errorf("unknown status %q", status)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("case_id", c.ID.String()).
		Str("status", string(c.Status)).
		Msg("case status set")
	return c, nil
}

// AdvanceReportStatus moves the reporting workflow forward. The progression
// is one-way: New -> In Progress -> Signed Off; requests that would move it
// backwards are ignored.
func (s *Service) AdvanceReportStatus(ctx context.Context, id uuid.UUID, status ReportStatus) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reportStatusRank(status) <= reportStatusRank(c.ReportStatus) {
		return c, nil
	}
	c.ReportStatus = status
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func reportStatusRank(s ReportStatus) int {
	switch s {
	case ReportInProgress:
		return 1
	case ReportSignedOff:
		return 2
	default:
		return 0
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByRegNo(ctx context.Context, branchID, regNo string) (*Case, error) {
	return s.repo.GetByRegNo(ctx, branchID, regNo)
}

func (s *Service) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*Case, int, error) {
	return s.repo.ListByBranch(ctx, branchID, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
