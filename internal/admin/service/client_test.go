package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/result"
)

func TestClientCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	grant := mustCreateRef(t, e.grantTypes, "client_credentials")

	t.Run("generated secret is returned once and only hashed at rest", func(t *testing.T) {
		res, secret := e.clients.Create(ctx, domain.Client{
			ClientID:   "admin-console",
			GrantTypes: []domain.Reference{grant},
		}, "")
		require.True(t, res.Accepted(), "%v", res.Errors())
		require.NotEmpty(t, secret)

		created := res.Instance()
		require.True(t, strings.HasPrefix(created.ID, "cli_"))
		require.NotContains(t, created.SecretHash, secret)
		require.NoError(t, cryptox.VerifyPassword(secret, created.SecretHash))
	})

	t.Run("supplied secret is honored", func(t *testing.T) {
		res, secret := e.clients.Create(ctx, domain.Client{
			ClientID:   "with-secret",
			GrantTypes: []domain.Reference{grant},
		}, "chosen-secret")
		require.True(t, res.Accepted())
		require.Equal(t, "chosen-secret", secret)
		require.NoError(t, cryptox.VerifyPassword("chosen-secret", res.Instance().SecretHash))
	})

	t.Run("missing client id and grant types accumulate", func(t *testing.T) {
		res, secret := e.clients.Create(ctx, domain.Client{}, "")
		require.True(t, res.Rejected())
		require.Empty(t, secret)
		require.Len(t, res.Errors(), 2)
		require.Equal(t, "CLI-0001", res.Errors()[0].Code)
		require.Equal(t, "A client id is required.", res.Errors()[0].Message)
		require.Equal(t, "CLI-0004", res.Errors()[1].Code)
		require.Equal(t, "A client requires at least one grant type.", res.Errors()[1].Message)
	})

	t.Run("duplicate client id conflicts", func(t *testing.T) {
		res, _ := e.clients.Create(ctx, domain.Client{
			ClientID:   "admin-console",
			GrantTypes: []domain.Reference{grant},
		}, "")
		require.True(t, res.Rejected())
		require.Equal(t, "CLI-0003", res.Errors()[0].Code)
		require.Equal(t, result.Conflict, res.Errors()[0].Kind)
	})

	t.Run("token validities stay unset until configured", func(t *testing.T) {
		access := 3600
		res, _ := e.clients.Create(ctx, domain.Client{
			ClientID:                   "timed-client",
			AccessTokenValiditySeconds: &access,
			GrantTypes:                 []domain.Reference{grant},
		}, "")
		require.True(t, res.Accepted())

		found := e.clients.FindByID(ctx, res.Instance().ID).Instance()
		require.NotNil(t, found.AccessTokenValiditySeconds)
		require.Equal(t, 3600, *found.AccessTokenValiditySeconds)
		require.Nil(t, found.RefreshTokenValiditySeconds)

		bare := e.clients.FindByClientID(ctx, "admin-console").Instance()
		require.Nil(t, bare.AccessTokenValiditySeconds)
	})

	t.Run("embedded sets hydrate on read", func(t *testing.T) {
		audience := mustCreateRef(t, e.audiences, "user")
		scope := mustCreateRef(t, e.scopes, "accounts:read")

		res, _ := e.clients.Create(ctx, domain.Client{
			ClientID:   "full-client",
			Audiences:  []domain.Reference{audience},
			Scopes:     []domain.Reference{scope},
			GrantTypes: []domain.Reference{grant},
		}, "")
		require.True(t, res.Accepted())

		found := e.clients.FindByID(ctx, res.Instance().ID)
		require.True(t, found.Accepted())
		require.Len(t, found.Instance().Audiences, 1)
		require.Len(t, found.Instance().Scopes, 1)
		require.Len(t, found.Instance().GrantTypes, 1)
		require.Equal(t, "user", found.Instance().Audiences[0].Name)
	})
}

func TestClientUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, secret := mustCreateClient(t, e, "admin-console")

	t.Run("update preserves the secret hash", func(t *testing.T) {
		created.RedirectURI = "https://console.example.com/callback"
		res := e.clients.Update(ctx, created)
		require.True(t, res.Accepted(), "%v", res.Errors())

		updated := res.Instance()
		require.Equal(t, created.SecretHash, updated.SecretHash)
		require.NoError(t, cryptox.VerifyPassword(secret, updated.SecretHash))
		require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("dropping every grant type is rejected", func(t *testing.T) {
		current := e.clients.FindByID(ctx, created.ID).Instance()
		current.GrantTypes = nil
		res := e.clients.Update(ctx, current)
		require.True(t, res.Rejected())
		require.Equal(t, "CLI-0004", res.Errors()[0].Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		res := e.clients.Update(ctx, domain.Client{ID: "cli_missing", ClientID: "x"})
		require.True(t, res.Rejected())
		require.Equal(t, "SYS-0001", res.Errors()[0].Code)
	})
}

func TestClientDeleteAndFind(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, _ := mustCreateClient(t, e, "admin-console")

	t.Run("find by client id", func(t *testing.T) {
		res := e.clients.FindByClientID(ctx, "admin-console")
		require.True(t, res.Accepted())
		require.Equal(t, created.ID, res.Instance().ID)
	})

	t.Run("blank lookups are unprocessable", func(t *testing.T) {
		res := e.clients.FindByID(ctx, " ")
		require.True(t, res.Rejected())
		require.Equal(t, "CLI-0006", res.Errors()[0].Code)

		res = e.clients.FindByClientID(ctx, "")
		require.True(t, res.Rejected())
		require.Equal(t, "CLI-0001", res.Errors()[0].Code)
	})

	t.Run("unknown lookups are not found", func(t *testing.T) {
		res := e.clients.FindByID(ctx, "csrx")
		require.True(t, res.Rejected())
		require.Equal(t, "SYS-0001", res.Errors()[0].Code)

		res = e.clients.FindByClientID(ctx, "csrx")
		require.True(t, res.Rejected())
		require.Equal(t, "CLI-0008", res.Errors()[0].Code)
	})

	t.Run("delete frees the linked references", func(t *testing.T) {
		grant := e.clients.FindByID(ctx, created.ID).Instance().GrantTypes[0]

		res := e.clients.Delete(ctx, created)
		require.True(t, res.Accepted())
		require.True(t, e.clients.FindByID(ctx, created.ID).Rejected())

		// No client links remain, so the grant type deletes cleanly.
		require.True(t, e.grantTypes.Delete(ctx, grant).Accepted())
	})
}

func TestClientFindsAreCacheFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, _ := mustCreateClient(t, e, "admin-console")

	t.Run("find by id populates the cache", func(t *testing.T) {
		_, ok := e.cache.GetByID(created.ID)
		require.False(t, ok, "create must not populate the cache")

		res := e.clients.FindByID(ctx, created.ID)
		require.True(t, res.Accepted())

		cached, ok := e.cache.GetByID(created.ID)
		require.True(t, ok)
		require.Equal(t, created.ID, cached.ID)
		_, ok = e.cache.GetByClientID("admin-console")
		require.True(t, ok, "both key sets are populated together")
	})

	t.Run("find by client id rehydrates after a flush", func(t *testing.T) {
		e.cache.EvictAll()
		_, ok := e.cache.GetByClientID("admin-console")
		require.False(t, ok)

		res := e.clients.FindByClientID(ctx, "admin-console")
		require.True(t, res.Accepted())

		cached, ok := e.cache.GetByClientID("admin-console")
		require.True(t, ok)
		require.Equal(t, created.ID, cached.ID)
	})

	t.Run("cache hits skip the store", func(t *testing.T) {
		// Remove the row behind the cache's back; a hit must still resolve.
		require.NoError(t, e.store.WithTx(ctx, func(tx store.Tx) error {
			return tx.Clients().Delete(ctx, created.ID)
		}))

		res := e.clients.FindByID(ctx, created.ID)
		require.True(t, res.Accepted())
		require.Equal(t, "admin-console", res.Instance().ClientID)
	})
}

func TestAssembler(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	audience := mustCreateRef(t, e.audiences, "user")
	scope := mustCreateRef(t, e.scopes, "accounts:read")
	grant := mustCreateRef(t, e.grantTypes, "client_credentials")

	t.Run("resolvable ids hydrate, the rest drop silently", func(t *testing.T) {
		client, err := e.assembler.AssembleClient(ctx, domain.Client{ClientID: "assembled"},
			[]string{audience.ID, "aud_missing", ""},
			[]string{scope.ID, scope.ID},
			[]string{grant.ID},
			[]string{"ath_missing"},
		)
		require.NoError(t, err)
		require.Len(t, client.Audiences, 1)
		require.Len(t, client.Scopes, 1)
		require.Len(t, client.GrantTypes, 1)
		require.Empty(t, client.Authorities)
	})

	t.Run("roles resolve the same way", func(t *testing.T) {
		role := mustCreateRef(t, e.roles, "operator")
		roles, err := e.assembler.AssembleRoles(ctx, []string{role.ID, "rol_missing"})
		require.NoError(t, err)
		require.Len(t, roles, 1)
		require.Equal(t, "operator", roles[0].Name)
	})
}
