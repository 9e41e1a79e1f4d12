package service

import (
	"context"
	"errors"

	"github.com/castellan/castellan/internal/admin/domain"
)

// errAssembly surfaces a backing-store failure during reference resolution.
var errAssembly = errors.New("service: reference assembly failed")

// Assembler turns the id lists carried by ingress payloads into hydrated
// reference sets. Blank, duplicate and unresolvable ids are dropped rather
// than rejected; callers get exactly the references that exist.
type Assembler struct {
	Audiences   *ReferenceService
	Scopes      *ReferenceService
	GrantTypes  *ReferenceService
	Authorities *ReferenceService
	Roles       *ReferenceService
}

// AssembleClient resolves the four embedded sets onto the client.
func (a *Assembler) AssembleClient(ctx context.Context, client domain.Client,
	audienceIDs, scopeIDs, grantTypeIDs, authorityIDs []string) (domain.Client, error) {

	var err error
	if client.Audiences, err = a.resolve(ctx, a.Audiences, audienceIDs); err != nil {
		return domain.Client{}, err
	}
	if client.Scopes, err = a.resolve(ctx, a.Scopes, scopeIDs); err != nil {
		return domain.Client{}, err
	}
	if client.GrantTypes, err = a.resolve(ctx, a.GrantTypes, grantTypeIDs); err != nil {
		return domain.Client{}, err
	}
	if client.Authorities, err = a.resolve(ctx, a.Authorities, authorityIDs); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// AssembleRoles resolves role ids for an account payload.
func (a *Assembler) AssembleRoles(ctx context.Context, roleIDs []string) ([]domain.Reference, error) {
	return a.resolve(ctx, a.Roles, roleIDs)
}

func (a *Assembler) resolve(ctx context.Context, svc *ReferenceService, ids []string) ([]domain.Reference, error) {
	res := svc.FindExistingByID(ctx, ids)
	if res.Rejected() {
		return nil, errAssembly
	}
	return res.Instance(), nil
}
