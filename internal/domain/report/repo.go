package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a branch has no stored settings, letterhead
// or signature.
var ErrNotFound = errors.New("report configuration not found")

type SettingsRepository interface {
	Get(ctx context.Context, branchID string) (*PrintSettings, error)
	Save(ctx context.Context, s *PrintSettings) error
}

type LetterheadRepository interface {
	Get(ctx context.Context, branchID string) (*Letterhead, error)
	Save(ctx context.Context, l *Letterhead) error
}

type SignatureRepository interface {
	ListByBranch(ctx context.Context, branchID string) ([]Signature, error)
	Save(ctx context.Context, s *Signature) error
	Delete(ctx context.Context, id uuid.UUID) error
}
