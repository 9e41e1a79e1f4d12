package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/castellan/castellan/internal/admin/cache"
	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/internal/admin/validation"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/idx"
	"github.com/castellan/castellan/pkg/result"
	"github.com/castellan/castellan/pkg/slogx"
)

type ClientService struct {
	Store store.Store
	Cache *cache.ClientCache

	rules *validation.Rules[domain.Client]
}

func NewClientService(st store.Store, c *cache.ClientCache) *ClientService {
	s := &ClientService{Store: st, Cache: c}
	s.rules = validation.NewRules[domain.Client]().
		On([]validation.Operation{validation.OpCreate, validation.OpUpdate},
			s.shapeRule, s.grantTypeRule, s.uniqueClientIDRule)
	return s
}

// Create validates and persists a new client. When secret is empty a secure
// one is generated; either way the plaintext is returned exactly once and
// only the hash persists.
func (s *ClientService) Create(ctx context.Context, client domain.Client, secret string) (result.Result[domain.Client], string) {
	l := slogx.FromContext(ctx)

	if secret == "" {
		generated, err := cryptox.GenerateSecret(cryptox.SecretSize256)
		if err != nil {
			l.Error("failed to generate client secret", "error", err)
			return result.Reject[domain.Client](systemError()), ""
		}
		secret = generated
	}

	var out result.Result[domain.Client]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		out = s.rules.Validate(ctx, tx, client, validation.OpCreate)
		if out.Rejected() {
			return errRejected
		}

		hash, err := cryptox.HashPassword(secret)
		if err != nil {
			return err
		}

		created := out.Instance()
		created.ID = idx.Prefixed("cli")
		created.SecretHash = hash
		now := time.Now().UTC()
		created.CreatedAt, created.UpdatedAt = now, now

		if err := tx.Clients().Create(ctx, created); err != nil {
			return err
		}
		out = result.Accept(created)
		return nil
	})
	if err != nil && !errors.Is(err, errRejected) {
		l.Error("failed to create client", "error", err)
		return result.Reject[domain.Client](systemError()), ""
	}
	if out.Rejected() {
		return out, ""
	}
	l.Info("client created", "id", out.Instance().ID, "client_id", out.Instance().ClientID)
	return out, secret
}

// Update validates and rewrites the client and its reference links. The
// secret hash is untouched. Both of the client's cache keys are evicted
// after commit, the pre-mutation ones included in case the client id moved.
func (s *ClientService) Update(ctx context.Context, client domain.Client) result.Result[domain.Client] {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(client.ID) == "" {
		return result.Reject[domain.Client](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var existing domain.Client
	var out result.Result[domain.Client]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		existing, err = tx.Clients().GetByID(ctx, client.ID)
		if err != nil {
			return err
		}

		out = s.rules.Validate(ctx, tx, client, validation.OpUpdate)
		if out.Rejected() {
			return errRejected
		}

		updated := out.Instance()
		updated.SecretHash = existing.SecretHash
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = touch(existing.UpdatedAt)

		if err := tx.Clients().Update(ctx, updated); err != nil {
			return err
		}
		out = result.Accept(updated)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "update", client.ID, err, out)
	}
	if out.Accepted() {
		s.Cache.Evict(existing)
		s.Cache.Evict(out.Instance())
		l.Info("client updated", "id", out.Instance().ID, "client_id", out.Instance().ClientID)
	}
	return out
}

// Delete removes the client and its links. Nothing guards client deletion;
// clients are leaves of the reference graph.
func (s *ClientService) Delete(ctx context.Context, client domain.Client) result.Result[domain.Client] {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(client.ID) == "" {
		return result.Reject[domain.Client](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var out result.Result[domain.Client]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Clients().GetByID(ctx, client.ID)
		if err != nil {
			return err
		}
		if err := tx.Clients().Delete(ctx, existing.ID); err != nil {
			return err
		}
		out = result.Accept(existing)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "delete", client.ID, err, out)
	}
	if out.Accepted() {
		s.Cache.Evict(out.Instance())
		l.Info("client deleted", "id", client.ID)
	}
	return out
}

// FindByID resolves a client by surrogate id, cache-first. Misses hydrate
// from the store and conditionally populate the cache.
func (s *ClientService) FindByID(ctx context.Context, id string) result.Result[domain.Client] {
	if strings.TrimSpace(id) == "" {
		return result.Reject[domain.Client](result.Errorf(result.Unprocessable,
			"CLI-0006", "A client id is required."))
	}

	if client, ok := s.Cache.GetByID(id); ok {
		return result.Accept(client)
	}

	gen := s.Cache.Generation()
	client, err := s.Store.Clients().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Reject[domain.Client](result.Errorf(result.NotFound,
				"SYS-0001", "No such client id: %s", id))
		}
		slogx.FromContext(ctx).Error("client lookup failed", "id", id, "error", err)
		return result.Reject[domain.Client](systemError())
	}
	s.Cache.PutIfFresh(gen, client)
	return result.Accept(client)
}

// FindByClientID resolves a client by its natural key, cache-first.
func (s *ClientService) FindByClientID(ctx context.Context, clientID string) result.Result[domain.Client] {
	if strings.TrimSpace(clientID) == "" {
		return result.Reject[domain.Client](result.Errorf(result.Unprocessable,
			"CLI-0001", "A client id is required."))
	}

	if client, ok := s.Cache.GetByClientID(clientID); ok {
		return result.Accept(client)
	}

	gen := s.Cache.Generation()
	client, err := s.Store.Clients().GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Reject[domain.Client](result.Errorf(result.NotFound,
				"CLI-0008", "No such client id: %s", clientID))
		}
		slogx.FromContext(ctx).Error("client lookup failed", "client_id", clientID, "error", err)
		return result.Reject[domain.Client](systemError())
	}
	s.Cache.PutIfFresh(gen, client)
	return result.Accept(client)
}

// List returns every client ordered by client id.
func (s *ClientService) List(ctx context.Context) result.Result[[]domain.Client] {
	clients, err := s.Store.Clients().List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("client list failed", "error", err)
		return result.Reject[[]domain.Client](systemError())
	}
	return result.Accept(clients)
}

func (s *ClientService) mutationFailure(ctx context.Context, op, id string, err error, out result.Result[domain.Client]) result.Result[domain.Client] {
	switch {
	case errors.Is(err, errRejected):
		return out
	case errors.Is(err, store.ErrNotFound):
		return result.Reject[domain.Client](result.Errorf(result.NotFound,
			"SYS-0001", "No such client id: %s", id))
	default:
		slogx.FromContext(ctx).Error("client "+op+" failed", "id", id, "error", err)
		return result.Reject[domain.Client](systemError())
	}
}

func (s *ClientService) shapeRule(ctx context.Context, tx store.Tx, client domain.Client) []result.Error {
	var errs []result.Error
	for _, fe := range validation.Struct(client) {
		switch {
		case fe.Field() == "ClientID" && fe.Tag() == "max":
			errs = append(errs, result.Errorf(result.Unprocessable, "CLI-0002",
				"A client id must be less than 128 characters."))
		case fe.Field() == "ClientID":
			errs = append(errs, result.Errorf(result.Unprocessable, "CLI-0001",
				"A client id is required."))
		case fe.Field() == "RedirectURI":
			errs = append(errs, result.Errorf(result.Unprocessable, "CLI-0007",
				"A client redirect uri must be less than 255 characters."))
		}
	}
	return errs
}

// grantTypeRule keeps the aggregate invariant that a client can always be
// issued at least one kind of grant.
func (s *ClientService) grantTypeRule(ctx context.Context, tx store.Tx, client domain.Client) []result.Error {
	if len(client.GrantTypes) == 0 {
		return []result.Error{result.Errorf(result.Unprocessable, "CLI-0004",
			"A client requires at least one grant type.")}
	}
	return nil
}

func (s *ClientService) uniqueClientIDRule(ctx context.Context, tx store.Tx, client domain.Client) []result.Error {
	if strings.TrimSpace(client.ClientID) == "" {
		return nil
	}
	count, err := tx.Clients().CountByClientID(ctx, client.ClientID, client.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("client id uniqueness check failed", "client_id", client.ClientID, "error", err)
		return []result.Error{systemError()}
	}
	if count > 0 {
		return []result.Error{result.Errorf(result.Conflict, "CLI-0003",
			"This client id is already in use.")}
	}
	return nil
}
