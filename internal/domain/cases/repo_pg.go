package cases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const caseCols = `id, branch_id, reg_no, dcn, patient, tests, categories, payment,
	status, report_status, whatsapp_triggers, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	var patientJSON, testsJSON, categoriesJSON, paymentJSON, triggersJSON []byte
	err := row.Scan(&c.ID, &c.BranchID, &c.RegNo, &c.DCN,
		&patientJSON, &testsJSON, &categoriesJSON, &paymentJSON,
		&c.Status, &c.ReportStatus, &triggersJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{patientJSON, &c.Patient},
		{testsJSON, &c.Tests},
		{categoriesJSON, &c.Categories},
		{paymentJSON, &c.Payment},
		{triggersJSON, &c.Triggers},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshal case field: %w", err)
		}
	}
	return &c, nil
}

func marshalCaseFields(c *Case) (patient, tests, categories, payment, triggers []byte, err error) {
	if patient, err = json.Marshal(c.Patient); err != nil {
		return
	}
	if tests, err = json.Marshal(c.Tests); err != nil {
		return
	}
	if categories, err = json.Marshal(c.Categories); err != nil {
		return
	}
	if payment, err = json.Marshal(c.Payment); err != nil {
		return
	}
	triggers, err = json.Marshal(c.Triggers)
	return
}

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	patient, tests, categories, payment, triggers, err := marshalCaseFields(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO cases (id, branch_id, reg_no, dcn, patient, tests, categories,
			payment, status, report_status, whatsapp_triggers, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.BranchID, c.RegNo, c.DCN, patient, tests, categories,
		payment, c.Status, c.ReportStatus, triggers, c.CreatedAt)
	return err
}

func (r *repoPG) Update(ctx context.Context, c *Case) error {
	patient, tests, categories, payment, triggers, err := marshalCaseFields(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE cases SET patient=$2, tests=$3, categories=$4, payment=$5,
			status=$6, report_status=$7, whatsapp_triggers=$8,
			created_at=$9, updated_at=now()
		WHERE id = $1`,
		c.ID, patient, tests, categories, payment,
		c.Status, c.ReportStatus, triggers, c.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	return scanCase(r.pool.QueryRow(ctx, `SELECT `+caseCols+` FROM cases WHERE id = $1`, id))
}

func (r *repoPG) GetByRegNo(ctx context.Context, branchID, regNo string) (*Case, error) {
	return scanCase(r.pool.QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE branch_id = $1 AND reg_no = $2`, branchID, regNo))
}

func (r *repoPG) RegNoExists(ctx context.Context, branchID, regNo string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cases WHERE branch_id = $1 AND reg_no = $2)`,
		branchID, regNo).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*Case, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM cases WHERE branch_id = $1`, branchID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+caseCols+` FROM cases
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, branchID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
