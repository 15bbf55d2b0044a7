package cases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lims/internal/platform/counter"
)

type mockCaseRepo struct {
	byID map[uuid.UUID]*Case
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{byID: make(map[uuid.UUID]*Case)}
}

func (m *mockCaseRepo) Create(_ context.Context, c *Case) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockCaseRepo) Update(_ context.Context, c *Case) error {
	if _, ok := m.byID[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uuid.UUID) (*Case, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCaseRepo) GetByRegNo(_ context.Context, branchID, regNo string) (*Case, error) {
	for _, c := range m.byID {
		if c.BranchID == branchID && c.RegNo == regNo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCaseRepo) RegNoExists(_ context.Context, branchID, regNo string) (bool, error) {
	for _, c := range m.byID {
		if c.BranchID == branchID && c.RegNo == regNo {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCaseRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*Case, int, error) {
	var out []*Case
	for _, c := range m.byID {
		if c.BranchID == branchID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockCaseRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func newTestCaseService() (*Service, *mockCaseRepo) {
	repo := newMockCaseRepo()
	gen := NewIdentifierGenerator(repo, counter.NewMemStore(), 1000)
	return NewService(repo, gen, zerolog.Nop()), repo
}

func validCreateInput() CreateInput {
	return CreateInput{
		BranchID: "b1",
		Patient:  Patient{Name: "Asha Verma", AgeDays: 30 * 365},
		Tests: map[string][]uuid.UUID{
			CategoryLab: {uuid.New(), uuid.New()},
		},
		Categories: []string{CategoryLab},
		Payment:    Payment{Total: 800, Received: 300},
	}
}

func TestCreateAssignsIdentifiers(t *testing.T) {
	svc, _ := newTestCaseService()
	created, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created.RegNo) != 9 || created.RegNo[0] != '7' {
		t.Errorf("bad reg no %q", created.RegNo)
	}
	if created.DCN != "L01" {
		t.Errorf("expected dcn L01, got %q", created.DCN)
	}
	if created.ReportStatus != ReportNew {
		t.Errorf("expected report status New, got %q", created.ReportStatus)
	}
	if created.Payment.Balance != 500 || created.Status != StatusDue {
		t.Errorf("expected balance 500/due, got %v/%q", created.Payment.Balance, created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()

	in := validCreateInput()
	in.BranchID = ""
	if _, err := svc.Create(ctx, in); err == nil {
		t.Error("expected error for missing branch")
	}

	in = validCreateInput()
	in.Patient.Name = ""
	if _, err := svc.Create(ctx, in); err == nil {
		t.Error("expected error for missing patient name")
	}

	in = validCreateInput()
	in.Payment.Discount = -5
	if _, err := svc.Create(ctx, in); err == nil {
		t.Error("expected error for negative discount")
	}

	in = validCreateInput()
	in.Tests["MRI"] = []uuid.UUID{uuid.New()}
	if _, err := svc.Create(ctx, in); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCreateBackDated(t *testing.T) {
	svc, _ := newTestCaseService()
	in := validCreateInput()
	past := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in.CreatedAt = past

	created, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.CreatedAt.Equal(past) {
		t.Errorf("expected back-dated created_at %v, got %v", past, created.CreatedAt)
	}
}

func TestUpdateKeepsIdentifiers(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Patient: &Patient{Name: "Asha K Verma", AgeDays: 30 * 365},
		Tests: map[string][]uuid.UUID{
			CategoryLab: {uuid.New()},
			CategoryUSG: {uuid.New()},
		},
		Categories: []string{CategoryLab, CategoryUSG},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RegNo != created.RegNo {
		t.Errorf("reg no changed on update: %q -> %q", created.RegNo, updated.RegNo)
	}
	if updated.DCN != created.DCN {
		t.Errorf("dcn changed on update: %q -> %q", created.DCN, updated.DCN)
	}
	if updated.Patient.Name != "Asha K Verma" {
		t.Errorf("patient not updated: %q", updated.Patient.Name)
	}
}

func TestUpdatePaymentRederivesStatus(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != StatusDue {
		t.Fatalf("precondition: expected due, got %q", created.Status)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Payment: &Payment{Total: 800, Received: 800},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusNoDue || updated.Payment.Balance != 0 {
		t.Errorf("expected no due/0, got %q/%v", updated.Status, updated.Payment.Balance)
	}
}

func TestUpdatePreservesCancelledWithoutPaymentEdit(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStatus(ctx, created.ID, StatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Patient: &Patient{Name: "Edited Name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("non-payment edit must keep cancelled, got %q", updated.Status)
	}

	// A payment edit clears the override.
	updated, err = svc.Update(ctx, created.ID, UpdateInput{
		Payment: &Payment{Total: 800, Received: 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusDue {
		t.Errorf("payment edit must re-derive status, got %q", updated.Status)
	}
}

func TestSetStatusRevert(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetStatus(ctx, created.ID, StatusRefund); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reverted, err := svc.SetStatus(ctx, created.ID, StatusDue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Balance is still 500, so the derived status wins regardless of which
	// derived value was requested.
	if reverted.Status != StatusDue {
		t.Errorf("expected derived due, got %q", reverted.Status)
	}

	if _, err := svc.SetStatus(ctx, created.ID, "bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestAdvanceReportStatusIsOneWay(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := svc.AdvanceReportStatus(ctx, created.ID, ReportSignedOff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ReportStatus != ReportSignedOff {
		t.Fatalf("expected Signed Off, got %q", c.ReportStatus)
	}

	c, err = svc.AdvanceReportStatus(ctx, created.ID, ReportInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ReportStatus != ReportSignedOff {
		t.Errorf("report status moved backwards to %q", c.ReportStatus)
	}
}

func TestGetByRegNo(t *testing.T) {
	svc, _ := newTestCaseService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := svc.GetByRegNo(ctx, "b1", created.RegNo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected case %s, got %s", created.ID, found.ID)
	}

	if _, err := svc.GetByRegNo(ctx, "b2", created.RegNo); err == nil {
		t.Error("expected lookup in other branch to miss")
	}
}
