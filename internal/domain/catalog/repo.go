package catalog

import (
	"context"

	"github.com/google/uuid"
)

type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	BatchGet(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error)
	List(ctx context.Context, kind ItemKind, limit, offset int) ([]*Item, int, error)
}

type RangeRepository interface {
	Create(ctx context.Context, r *ReferenceRange) error
	ListByTest(ctx context.Context, testID uuid.UUID) ([]ReferenceRange, error)
	ListByTests(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID][]ReferenceRange, error)
}

type FormulaRepository interface {
	Create(ctx context.Context, f *Formula) error
	GetByTest(ctx context.Context, testID uuid.UUID) (*Formula, error)
	ListAll(ctx context.Context) ([]*Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
