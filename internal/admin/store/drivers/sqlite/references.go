package sqlite

import (
	"context"
	"database/sql"

	"github.com/castellan/castellan/internal/admin/domain"
)

type referencesRepo struct {
	db dbtx
}

const referenceColumns = `id, kind, name, description, created_at, updated_at`

func (r *referencesRepo) GetByID(ctx context.Context, id string) (domain.Reference, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+referenceColumns+` FROM reference_entities WHERE id = ?`, id)
	return scanReference(row)
}

func (r *referencesRepo) GetByName(ctx context.Context, kind domain.Kind, name string) (domain.Reference, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+referenceColumns+` FROM reference_entities WHERE kind = ? AND name = ?`,
		string(kind), name)
	return scanReference(row)
}

func (r *referencesRepo) List(ctx context.Context, kind domain.Kind) ([]domain.Reference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+referenceColumns+` FROM reference_entities WHERE kind = ? ORDER BY name`,
		string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *referencesRepo) Create(ctx context.Context, ref domain.Reference) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reference_entities (id, kind, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ref.ID, string(ref.Kind), ref.Name, ref.Description, ref.CreatedAt, ref.UpdatedAt)
	return mapConstraint(err)
}

func (r *referencesRepo) Update(ctx context.Context, ref domain.Reference) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reference_entities SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		ref.Name, ref.Description, ref.UpdatedAt, ref.ID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireAffected(res)
}

func (r *referencesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reference_entities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *referencesRepo) CountByName(ctx context.Context, kind domain.Kind, name, excludeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reference_entities WHERE kind = ? AND name = ? AND id <> ?`,
		string(kind), name, excludeID).Scan(&count)
	return count, err
}

func (r *referencesRepo) CountClientLinks(ctx context.Context, refID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM client_references WHERE reference_id = ?`, refID).Scan(&count)
	return count, err
}

func (r *referencesRepo) CountAccountLinks(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM account_roles WHERE role_id = ?`, roleID).Scan(&count)
	return count, err
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReference(s scanner) (domain.Reference, error) {
	var ref domain.Reference
	var kind string
	err := s.Scan(&ref.ID, &kind, &ref.Name, &ref.Description, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return domain.Reference{}, mapNotFound(err)
	}
	ref.Kind = domain.Kind(kind)
	return ref, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
