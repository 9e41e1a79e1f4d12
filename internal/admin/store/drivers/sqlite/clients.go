package sqlite

import (
	"context"
	"database/sql"

	"github.com/castellan/castellan/internal/admin/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, client_id, secret_hash, redirect_uri,
	access_token_validity_seconds, refresh_token_validity_seconds,
	created_at, updated_at`

func (r *clientsRepo) GetByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, err
	}
	return c, r.hydrate(ctx, &c)
}

func (r *clientsRepo) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE client_id = ?`, clientID)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, err
	}
	return c, r.hydrate(ctx, &c)
}

func (r *clientsRepo) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY client_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range clients {
		if err := r.hydrate(ctx, &clients[i]); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

func (r *clientsRepo) Create(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, client_id, secret_hash, redirect_uri,
		   access_token_validity_seconds, refresh_token_validity_seconds,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.SecretHash, c.RedirectURI,
		nullSeconds(c.AccessTokenValiditySeconds), nullSeconds(c.RefreshTokenValiditySeconds),
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	return r.replaceReferences(ctx, c)
}

func (r *clientsRepo) Update(ctx context.Context, c domain.Client) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET client_id = ?, secret_hash = ?, redirect_uri = ?,
		   access_token_validity_seconds = ?, refresh_token_validity_seconds = ?,
		   updated_at = ?
		 WHERE id = ?`,
		c.ClientID, c.SecretHash, c.RedirectURI,
		nullSeconds(c.AccessTokenValiditySeconds), nullSeconds(c.RefreshTokenValiditySeconds),
		c.UpdatedAt, c.ID)
	if err != nil {
		return mapConstraint(err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return r.replaceReferences(ctx, c)
}

func (r *clientsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *clientsRepo) CountByClientID(ctx context.Context, clientID, excludeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE client_id = ? AND id <> ?`,
		clientID, excludeID).Scan(&count)
	return count, err
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// hydrate loads the client's linked references and splits them by kind,
// each set ordered by name.
func (r *clientsRepo) hydrate(ctx context.Context, c *domain.Client) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT re.id, re.kind, re.name, re.description, re.created_at, re.updated_at
		 FROM reference_entities re
		 JOIN client_references cr ON cr.reference_id = re.id
		 WHERE cr.client_id = ?
		 ORDER BY re.name`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return err
		}
		switch ref.Kind {
		case domain.KindAudience:
			c.Audiences = append(c.Audiences, ref)
		case domain.KindScope:
			c.Scopes = append(c.Scopes, ref)
		case domain.KindGrantType:
			c.GrantTypes = append(c.GrantTypes, ref)
		case domain.KindAuthority:
			c.Authorities = append(c.Authorities, ref)
		}
	}
	return rows.Err()
}

func (r *clientsRepo) replaceReferences(ctx context.Context, c domain.Client) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM client_references WHERE client_id = ?`, c.ID); err != nil {
		return err
	}
	for _, refs := range c.References() {
		for _, ref := range refs {
			if _, err := r.db.ExecContext(ctx,
				`INSERT OR IGNORE INTO client_references (client_id, reference_id) VALUES (?, ?)`,
				c.ID, ref.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func scanClient(s scanner) (domain.Client, error) {
	var c domain.Client
	var access, refresh sql.NullInt64
	err := s.Scan(&c.ID, &c.ClientID, &c.SecretHash, &c.RedirectURI,
		&access, &refresh, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.AccessTokenValiditySeconds = seconds(access)
	c.RefreshTokenValiditySeconds = seconds(refresh)
	return c, nil
}

func seconds(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullSeconds(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
