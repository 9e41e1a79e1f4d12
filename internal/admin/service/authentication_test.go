package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadByClientID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, _ := mustCreateClient(t, e, "admin-console")

	t.Run("blank client id does not resolve", func(t *testing.T) {
		_, err := e.auth.LoadByClientID(ctx, "")
		require.ErrorIs(t, err, ErrClientNotFound)
		_, err = e.auth.LoadByClientID(ctx, "   ")
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("unknown client id does not resolve", func(t *testing.T) {
		_, err := e.auth.LoadByClientID(ctx, "nope")
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("miss hydrates and populates the cache", func(t *testing.T) {
		client, err := e.auth.LoadByClientID(ctx, "admin-console")
		require.NoError(t, err)
		require.Equal(t, created.ID, client.ID)
		require.NotEmpty(t, client.GrantTypes)

		cached, ok := e.cache.GetByClientID("admin-console")
		require.True(t, ok)
		require.Equal(t, created.ID, cached.ID)

		// Second call serves the cached aggregate.
		again, err := e.auth.LoadByClientID(ctx, "admin-console")
		require.NoError(t, err)
		require.Equal(t, client.ID, again.ID)
	})
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, secret := mustCreateClient(t, e, "admin-console")

	t.Run("valid credentials resolve the aggregate", func(t *testing.T) {
		client, err := e.auth.Authenticate(ctx, "admin-console", secret)
		require.NoError(t, err)
		require.Equal(t, created.ID, client.ID)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		_, err := e.auth.Authenticate(ctx, "admin-console", "wrong")
		require.ErrorIs(t, err, ErrInvalidClientSecret)
	})

	t.Run("unknown client is rejected", func(t *testing.T) {
		_, err := e.auth.Authenticate(ctx, "ghost", secret)
		require.ErrorIs(t, err, ErrClientNotFound)
	})
}

// The cache must never serve an aggregate that disagrees with the store
// after a reference mutation commits.
func TestCacheCoherence(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	audience := mustCreateRef(t, e.audiences, "user")
	created, _ := mustCreateClient(t, e, "admin-console", audience)

	// Warm the cache.
	warm, err := e.auth.LoadByClientID(ctx, "admin-console")
	require.NoError(t, err)
	require.Equal(t, "user", warm.Audiences[0].Name)

	t.Run("reference rename invalidates every aggregate", func(t *testing.T) {
		audience.Name = "customers"
		require.True(t, e.audiences.Update(ctx, audience).Accepted())

		_, ok := e.cache.GetByClientID("admin-console")
		require.False(t, ok)

		reloaded, err := e.auth.LoadByClientID(ctx, "admin-console")
		require.NoError(t, err)
		require.Equal(t, "customers", reloaded.Audiences[0].Name)
	})

	t.Run("client mutation evicts its own keys", func(t *testing.T) {
		current := e.clients.FindByID(ctx, created.ID).Instance()
		current.RedirectURI = "https://example.com/cb"
		require.True(t, e.clients.Update(ctx, current).Accepted())

		_, ok := e.cache.GetByID(created.ID)
		require.False(t, ok)
		_, ok = e.cache.GetByClientID("admin-console")
		require.False(t, ok)
	})

	t.Run("deleted client stops resolving", func(t *testing.T) {
		current := e.clients.FindByID(ctx, created.ID).Instance()
		require.True(t, e.clients.Delete(ctx, current).Accepted())

		_, err := e.auth.LoadByClientID(ctx, "admin-console")
		require.ErrorIs(t, err, ErrClientNotFound)
	})
}

// Deleting an unlinked reference of any kind still flushes the cache; a
// client that embedded nothing from that kind must also rehydrate.
func TestCacheFlushIsCrossEntity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mustCreateClient(t, e, "admin-console")
	_, err := e.auth.LoadByClientID(ctx, "admin-console")
	require.NoError(t, err)

	role := mustCreateRef(t, e.roles, "operator")
	require.True(t, e.roles.Delete(ctx, role).Accepted())

	_, ok := e.cache.GetByClientID("admin-console")
	require.False(t, ok)

	reloaded, err := e.auth.LoadByClientID(ctx, "admin-console")
	require.NoError(t, err)
	require.Equal(t, "admin-console", reloaded.ClientID)
}
