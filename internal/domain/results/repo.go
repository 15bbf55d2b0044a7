package results

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no result sheet exists for a case.
var ErrNotFound = errors.New("result not found")

type Repository interface {
	Create(ctx context.Context, r *Result) error
	Update(ctx context.Context, r *Result) error
	GetByCase(ctx context.Context, caseID uuid.UUID) (*Result, error)
	Delete(ctx context.Context, caseID uuid.UUID) error
}
