package cases

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a case lookup matches nothing.
var ErrNotFound = errors.New("case not found")

type Repository interface {
	Create(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	GetByRegNo(ctx context.Context, branchID, regNo string) (*Case, error)
	RegNoExists(ctx context.Context, branchID, regNo string) (bool, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*Case, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
