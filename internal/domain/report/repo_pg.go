package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Print Settings ===========

type settingsRepoPG struct{ pool *pgxpool.Pool }

func NewSettingsRepoPG(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepoPG{pool: pool}
}

func (r *settingsRepoPG) Get(ctx context.Context, branchID string) (*PrintSettings, error) {
	var s PrintSettings
	var generalJSON, designJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT branch_id, general, design, updated_at
		FROM print_settings WHERE branch_id = $1`, branchID).
		Scan(&s.BranchID, &generalJSON, &designJSON, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(generalJSON, &s.General); err != nil {
		return nil, fmt.Errorf("unmarshal general settings: %w", err)
	}
	if err := json.Unmarshal(designJSON, &s.Design); err != nil {
		return nil, fmt.Errorf("unmarshal design settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepoPG) Save(ctx context.Context, s *PrintSettings) error {
	generalJSON, err := json.Marshal(s.General)
	if err != nil {
		return fmt.Errorf("marshal general settings: %w", err)
	}
	designJSON, err := json.Marshal(s.Design)
	if err != nil {
		return fmt.Errorf("marshal design settings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO print_settings (branch_id, general, design)
		VALUES ($1,$2,$3)
		ON CONFLICT (branch_id) DO UPDATE SET
			general = EXCLUDED.general,
			design = EXCLUDED.design,
			updated_at = now()`,
		s.BranchID, generalJSON, designJSON)
	return err
}

// =========== Letterhead ===========

type letterheadRepoPG struct{ pool *pgxpool.Pool }

func NewLetterheadRepoPG(pool *pgxpool.Pool) LetterheadRepository {
	return &letterheadRepoPG{pool: pool}
}

func (r *letterheadRepoPG) Get(ctx context.Context, branchID string) (*Letterhead, error) {
	var l Letterhead
	err := r.pool.QueryRow(ctx, `
		SELECT branch_id, header_url, footer_url, margin_top, margin_bot
		FROM letterheads WHERE branch_id = $1`, branchID).
		Scan(&l.BranchID, &l.HeaderURL, &l.FooterURL, &l.MarginTop, &l.MarginBot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *letterheadRepoPG) Save(ctx context.Context, l *Letterhead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO letterheads (branch_id, header_url, footer_url, margin_top, margin_bot)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (branch_id) DO UPDATE SET
			header_url = EXCLUDED.header_url,
			footer_url = EXCLUDED.footer_url,
			margin_top = EXCLUDED.margin_top,
			margin_bot = EXCLUDED.margin_bot`,
		l.BranchID, l.HeaderURL, l.FooterURL, l.MarginTop, l.MarginBot)
	return err
}

// =========== Signatures ===========

type signatureRepoPG struct{ pool *pgxpool.Pool }

func NewSignatureRepoPG(pool *pgxpool.Pool) SignatureRepository {
	return &signatureRepoPG{pool: pool}
}

func (r *signatureRepoPG) ListByBranch(ctx context.Context, branchID string) ([]Signature, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, branch_id, name, qualification, designation, image_url, sort_order
		FROM signatures WHERE branch_id = $1
		ORDER BY sort_order, name`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Signature
	for rows.Next() {
		var s Signature
		if err := rows.Scan(&s.ID, &s.BranchID, &s.Name, &s.Qualification,
			&s.Designation, &s.ImageURL, &s.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *signatureRepoPG) Save(ctx context.Context, s *Signature) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO signatures (id, branch_id, name, qualification, designation, image_url, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			qualification = EXCLUDED.qualification,
			designation = EXCLUDED.designation,
			image_url = EXCLUDED.image_url,
			sort_order = EXCLUDED.sort_order`,
		s.ID, s.BranchID, s.Name, s.Qualification, s.Designation, s.ImageURL, s.SortOrder)
	return err
}

func (r *signatureRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM signatures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
