package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lims/internal/domain/cases"
	"github.com/medilab/lims/internal/domain/results"
)

// CaseSource is the slice of the case service the composer reads.
type CaseSource interface {
	Get(ctx context.Context, id uuid.UUID) (*cases.Case, error)
	GetByRegNo(ctx context.Context, branchID, regNo string) (*cases.Case, error)
}

// ResultSource supplies the result sheet for a case.
type ResultSource interface {
	GetByCase(ctx context.Context, caseID uuid.UUID) (*results.Result, error)
}

type Service struct {
	settings    SettingsRepository
	letterheads LetterheadRepository
	signatures  SignatureRepository
	caseSvc     CaseSource
	resultSvc   ResultSource
	log         zerolog.Logger
}

func NewService(settings SettingsRepository, letterheads LetterheadRepository,
	signatures SignatureRepository, caseSvc CaseSource, resultSvc ResultSource,
	log zerolog.Logger) *Service {
	return &Service{
		settings:    settings,
		letterheads: letterheads,
		signatures:  signatures,
		caseSvc:     caseSvc,
		resultSvc:   resultSvc,
		log:         log,
	}
}

// DefaultSettings applies when a branch has never saved its own: markers on,
// abnormal values bold but not red.
func DefaultSettings(branchID string) PrintSettings {
	return PrintSettings{
		BranchID: branchID,
		General:  GeneralSettings{UseHLMarkers: true},
		Design:   DesignSettings{BoldAbnormal: true},
	}
}

// ComposeForCase assembles the printable document for a case from its result
// sheet and the branch's print configuration. Missing configuration falls
// back to defaults; a missing result sheet is an error.
func (s *Service) ComposeForCase(ctx context.Context, caseID uuid.UUID) (*DocumentModel, error) {
	cs, err := s.caseSvc.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	r, err := s.resultSvc.GetByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	settings, letterhead, signatures := s.branchConfig(ctx, cs.BranchID)
	return Compose(cs, r, settings, letterhead, signatures), nil
}

func (s *Service) branchConfig(ctx context.Context, branchID string) (PrintSettings, *Letterhead, []Signature) {
	settings := DefaultSettings(branchID)
	if stored, err := s.settings.Get(ctx, branchID); err == nil {
		settings = *stored
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Warn().Err(err).Str("branch_id", branchID).Msg("load print settings")
	}
	var letterhead *Letterhead
	if lh, err := s.letterheads.Get(ctx, branchID); err == nil {
		letterhead = lh
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Warn().Err(err).Str("branch_id", branchID).Msg("load letterhead")
	}
	signatures, err := s.signatures.ListByBranch(ctx, branchID)
	if err != nil {
		s.log.Warn().Err(err).Str("branch_id", branchID).Msg("load signatures")
	}
	return settings, letterhead, signatures
}

// PublicSummary is the redacted view served to patients following a report
// link: identity confirmation plus progress, never result values.
type PublicSummary struct {
	RegNo        string              `json:"reg_no"`
	PatientName  string              `json:"patient_name"`
	ReportStatus cases.ReportStatus  `json:"report_status"`
	ResultStatus results.ResultStatus `json:"result_status,omitempty"`
	Categories   []string            `json:"categories"`
}

// PublicSummaryByRegNo looks a case up by its registration number for the
// unauthenticated report-tracking page.
func (s *Service) PublicSummaryByRegNo(ctx context.Context, branchID, regNo string) (*PublicSummary, error) {
	cs, err := s.caseSvc.GetByRegNo(ctx, branchID, regNo)
	if err != nil {
		return nil, err
	}
	summary := &PublicSummary{
		RegNo:        cs.RegNo,
		PatientName:  cs.Patient.Name,
		ReportStatus: cs.ReportStatus,
		Categories:   cs.Categories,
	}
	if r, err := s.resultSvc.GetByCase(ctx, cs.ID); err == nil {
		summary.ResultStatus = r.Status
	}
	return summary, nil
}

func (s *Service) GetSettings(ctx context.Context, branchID string) (*PrintSettings, error) {
	stored, err := s.settings.Get(ctx, branchID)
	if errors.Is(err, ErrNotFound) {
		def := DefaultSettings(branchID)
		return &def, nil
	}
	return stored, err
}

func (s *Service) SaveSettings(ctx context.Context, settings *PrintSettings) error {
	return s.settings.Save(ctx, settings)
}

func (s *Service) GetLetterhead(ctx context.Context, branchID string) (*Letterhead, error) {
	return s.letterheads.Get(ctx, branchID)
}

func (s *Service) SaveLetterhead(ctx context.Context, l *Letterhead) error {
	return s.letterheads.Save(ctx, l)
}

func (s *Service) ListSignatures(ctx context.Context, branchID string) ([]Signature, error) {
	return s.signatures.ListByBranch(ctx, branchID)
}

func (s *Service) SaveSignature(ctx context.Context, sig *Signature) error {
	return s.signatures.Save(ctx, sig)
}

func (s *Service) DeleteSignature(ctx context.Context, id uuid.UUID) error {
	return s.signatures.Delete(ctx, id)
}
