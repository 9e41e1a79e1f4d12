package sqlite

import (
	"context"
	"time"

	"github.com/castellan/castellan/internal/admin/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, username, password_hash, locked, created_at, updated_at`

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, err
	}
	a.Roles, err = r.roleRefs(ctx, a.ID)
	return a, err
}

func (r *accountsRepo) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, err
	}
	a.Roles, err = r.roleRefs(ctx, a.ID)
	return a, err
}

func (r *accountsRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range accounts {
		accounts[i].Roles, err = r.roleRefs(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, locked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.PasswordHash, a.Locked, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return r.replaceRoles(ctx, a.ID, a.Roles)
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, locked = ?, updated_at = ? WHERE id = ?`,
		a.Username, a.Locked, a.UpdatedAt, a.ID)
	if err != nil {
		return mapConstraint(err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return r.replaceRoles(ctx, a.ID, a.Roles)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID, newHash string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, updatedAt, accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) CountByUsername(ctx context.Context, username, excludeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE username = ? AND id <> ?`,
		username, excludeID).Scan(&count)
	return count, err
}

func (r *accountsRepo) roleRefs(ctx context.Context, accountID string) ([]domain.Reference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT re.id, re.kind, re.name, re.description, re.created_at, re.updated_at
		 FROM reference_entities re
		 JOIN account_roles ar ON ar.role_id = re.id
		 WHERE ar.account_id = ?
		 ORDER BY re.name`, accountID)
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

func (r *accountsRepo) replaceRoles(ctx context.Context, accountID string, roles []domain.Reference) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM account_roles WHERE account_id = ?`, accountID); err != nil {
		return err
	}
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO account_roles (account_id, role_id) VALUES (?, ?)`,
			accountID, role.ID); err != nil {
			return err
		}
	}
	return nil
}

func scanAccount(s scanner) (domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Locked, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}
