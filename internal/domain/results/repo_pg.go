package results

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

const resultCols = `id, case_id, branch_id, reg_no, patient, categories, issues, status, created_at, updated_at`

func scanResult(row pgx.Row) (*Result, error) {
	var r Result
	var patientJSON, categoriesJSON, issuesJSON []byte
	err := row.Scan(&r.ID, &r.CaseID, &r.BranchID, &r.RegNo,
		&patientJSON, &categoriesJSON, &issuesJSON, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(patientJSON, &r.Patient); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	if err := json.Unmarshal(categoriesJSON, &r.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if len(issuesJSON) > 0 {
		if err := json.Unmarshal(issuesJSON, &r.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
	}
	return &r, nil
}

func marshalResultFields(r *Result) (patient, categories, issues []byte, err error) {
	if patient, err = json.Marshal(r.Patient); err != nil {
		return
	}
	if categories, err = json.Marshal(r.Categories); err != nil {
		return
	}
	issues, err = json.Marshal(r.Issues)
	return
}

func (p *repoPG) Create(ctx context.Context, r *Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	patient, categories, issues, err := marshalResultFields(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO results (id, case_id, branch_id, reg_no, patient, categories, issues, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.CaseID, r.BranchID, r.RegNo, patient, categories, issues, r.Status)
	return err
}

func (p *repoPG) Update(ctx context.Context, r *Result) error {
	patient, categories, issues, err := marshalResultFields(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE results SET patient=$2, categories=$3, issues=$4, status=$5, updated_at=now()
		WHERE case_id = $1`,
		r.CaseID, patient, categories, issues, r.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) GetByCase(ctx context.Context, caseID uuid.UUID) (*Result, error) {
	return scanResult(p.pool.QueryRow(ctx,
		`SELECT `+resultCols+` FROM results WHERE case_id = $1`, caseID))
}

func (p *repoPG) Delete(ctx context.Context, caseID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM results WHERE case_id = $1`, caseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
