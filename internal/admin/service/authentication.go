package service

import (
	"context"
	"errors"
	"strings"

	"github.com/castellan/castellan/internal/admin/cache"
	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/slogx"
)

// ErrInvalidClientSecret is returned when the client resolves but the
// presented secret does not match.
var ErrInvalidClientSecret = errors.New("invalid client secret")

// ClientAuthenticationService serves the hot lookup on the token path:
// resolve a client id to its full aggregate, cache-first.
type ClientAuthenticationService struct {
	Store store.Store
	Cache *cache.ClientCache
}

// LoadByClientID returns the hydrated client aggregate for the client id.
// Cache hits skip the store entirely; misses hydrate and conditionally
// populate the cache. The returned aggregate must not be mutated.
func (s *ClientAuthenticationService) LoadByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	if strings.TrimSpace(clientID) == "" {
		return domain.Client{}, ErrClientNotFound
	}

	if client, ok := s.Cache.GetByClientID(clientID); ok {
		return client, nil
	}

	// Capture the generation before hydrating so a concurrent flush
	// invalidates this read.
	gen := s.Cache.Generation()

	client, err := s.Store.Clients().GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		slogx.FromContext(ctx).Error("client authentication lookup failed", "client_id", clientID, "error", err)
		return domain.Client{}, err
	}

	s.Cache.PutIfFresh(gen, client)
	return client, nil
}

// Authenticate resolves the client and verifies the presented secret.
// Boundary layers should collapse ErrClientNotFound and
// ErrInvalidClientSecret into the same challenge response.
func (s *ClientAuthenticationService) Authenticate(ctx context.Context, clientID, secret string) (domain.Client, error) {
	client, err := s.LoadByClientID(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if err := cryptox.VerifyPassword(secret, client.SecretHash); err != nil {
		return domain.Client{}, ErrInvalidClientSecret
	}
	return client, nil
}
