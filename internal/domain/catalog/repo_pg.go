package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

const itemCols = `id, kind, name, interpretation, test, children, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	var testJSON, childrenJSON []byte
	err := row.Scan(&it.ID, &it.Kind, &it.Name, &it.Interpretation,
		&testJSON, &childrenJSON, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(testJSON) > 0 {
		if err := json.Unmarshal(testJSON, &it.Test); err != nil {
			return nil, fmt.Errorf("unmarshal test definition: %w", err)
		}
	}
	if len(childrenJSON) > 0 {
		if err := json.Unmarshal(childrenJSON, &it.Children); err != nil {
			return nil, fmt.Errorf("unmarshal children: %w", err)
		}
	}
	return &it, nil
}

func (r *itemRepoPG) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	testJSON, err := json.Marshal(item.Test)
	if err != nil {
		return fmt.Errorf("marshal test definition: %w", err)
	}
	childrenJSON, err := json.Marshal(item.Children)
	if err != nil {
		return fmt.Errorf("marshal children: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO catalog_items (id, kind, name, interpretation, test, children)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, item.Kind, item.Name, item.Interpretation, testJSON, childrenJSON)
	return err
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemCols+` FROM catalog_items WHERE id = $1`, id))
}

func (r *itemRepoPG) BatchGet(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error) {
	out := make(map[uuid.UUID]*Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal ids: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemCols+` FROM catalog_items
		WHERE id IN (SELECT value::uuid FROM jsonb_array_elements_text($1::jsonb) AS t(value))`, idsJSON)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, rows.Err()
}

func (r *itemRepoPG) List(ctx context.Context, kind ItemKind, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_items WHERE kind = $1`, kind).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemCols+` FROM catalog_items WHERE kind = $1
		ORDER BY name LIMIT $2 OFFSET $3`, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// =========== ReferenceRange Repository ===========

type rangeRepoPG struct{ pool *pgxpool.Pool }

func NewRangeRepoPG(pool *pgxpool.Pool) RangeRepository {
	return &rangeRepoPG{pool: pool}
}

const rangeCols = `id, test_id, parameter, kind, sex, min_age, min_unit, max_age, max_unit,
	lower_bound, upper_bound, text_value, display_text, created_at`

func scanRange(row pgx.Row) (ReferenceRange, error) {
	var rr ReferenceRange
	err := row.Scan(&rr.ID, &rr.TestID, &rr.Parameter, &rr.Kind, &rr.Sex,
		&rr.MinAge, &rr.MinUnit, &rr.MaxAge, &rr.MaxUnit,
		&rr.Lower, &rr.Upper, &rr.TextValue, &rr.DisplayText, &rr.CreatedAt)
	return rr, err
}

func (r *rangeRepoPG) Create(ctx context.Context, rr *ReferenceRange) error {
	if rr.ID == uuid.Nil {
		rr.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reference_ranges (id, test_id, parameter, kind, sex,
			min_age, min_unit, max_age, max_unit,
			lower_bound, upper_bound, text_value, display_text)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		rr.ID, rr.TestID, rr.Parameter, rr.Kind, rr.Sex,
		rr.MinAge, rr.MinUnit, rr.MaxAge, rr.MaxUnit,
		rr.Lower, rr.Upper, rr.TextValue, rr.DisplayText)
	return err
}

func (r *rangeRepoPG) ListByTest(ctx context.Context, testID uuid.UUID) ([]ReferenceRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rangeCols+` FROM reference_ranges
		WHERE test_id = $1 ORDER BY created_at`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReferenceRange
	for rows.Next() {
		rr, err := scanRange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (r *rangeRepoPG) ListByTests(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID][]ReferenceRange, error) {
	out := make(map[uuid.UUID][]ReferenceRange, len(testIDs))
	if len(testIDs) == 0 {
		return out, nil
	}
	idsJSON, err := json.Marshal(testIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal test ids: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+rangeCols+` FROM reference_ranges
		WHERE test_id IN (SELECT value::uuid FROM jsonb_array_elements_text($1::jsonb) AS t(value))
		ORDER BY created_at`, idsJSON)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rr, err := scanRange(rows)
		if err != nil {
			return nil, err
		}
		out[rr.TestID] = append(out[rr.TestID], rr)
	}
	return out, rows.Err()
}

// =========== Formula Repository ===========

type formulaRepoPG struct{ pool *pgxpool.Pool }

func NewFormulaRepoPG(pool *pgxpool.Pool) FormulaRepository {
	return &formulaRepoPG{pool: pool}
}

const formulaCols = `id, test_id, expression, dependencies, created_at`

func scanFormula(row pgx.Row) (*Formula, error) {
	var f Formula
	var depsJSON []byte
	err := row.Scan(&f.ID, &f.TestID, &f.Expression, &depsJSON, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(depsJSON) > 0 {
		if err := json.Unmarshal(depsJSON, &f.Dependencies); err != nil {
			return nil, fmt.Errorf("unmarshal dependencies: %w", err)
		}
	}
	return &f, nil
}

func (r *formulaRepoPG) Create(ctx context.Context, f *Formula) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	depsJSON, err := json.Marshal(f.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO formulas (id, test_id, expression, dependencies)
		VALUES ($1,$2,$3,$4)`,
		f.ID, f.TestID, f.Expression, depsJSON)
	return err
}

func (r *formulaRepoPG) GetByTest(ctx context.Context, testID uuid.UUID) (*Formula, error) {
	return scanFormula(r.pool.QueryRow(ctx, `SELECT `+formulaCols+` FROM formulas WHERE test_id = $1`, testID))
}

func (r *formulaRepoPG) ListAll(ctx context.Context) ([]*Formula, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+formulaCols+` FROM formulas ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Formula
	for rows.Next() {
		f, err := scanFormula(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *formulaRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM formulas WHERE id = $1`, id)
	return err
}
