package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/castellan/castellan/internal/admin/cache"
	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/internal/admin/validation"
	"github.com/castellan/castellan/pkg/idx"
	"github.com/castellan/castellan/pkg/result"
	"github.com/castellan/castellan/pkg/slogx"
)

// ReferenceService manages one kind of reference entity. The five kinds
// share this implementation; construct one instance per kind.
type ReferenceService struct {
	Store store.Store
	Cache *cache.ClientCache

	kind  domain.Kind
	desc  domain.Descriptor
	rules *validation.Rules[domain.Reference]
}

func NewReferenceService(st store.Store, c *cache.ClientCache, kind domain.Kind) *ReferenceService {
	s := &ReferenceService{
		Store: st,
		Cache: c,
		kind:  kind,
		desc:  kind.Descriptor(),
	}
	s.rules = validation.NewRules[domain.Reference]().
		On([]validation.Operation{validation.OpCreate, validation.OpUpdate},
			s.shapeRule, s.uniqueNameRule).
		On([]validation.Operation{validation.OpDelete}, s.deleteGuard)
	return s
}

// Kind returns the reference kind this instance manages.
func (s *ReferenceService) Kind() domain.Kind { return s.kind }

// Create validates and persists a new reference. The id and timestamps are
// assigned here; created and updated start equal.
func (s *ReferenceService) Create(ctx context.Context, ref domain.Reference) result.Result[domain.Reference] {
	l := slogx.FromContext(ctx)
	ref.Kind = s.kind

	var out result.Result[domain.Reference]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		out = s.rules.Validate(ctx, tx, ref, validation.OpCreate)
		if out.Rejected() {
			return errRejected
		}

		created := out.Instance()
		created.ID = idx.Prefixed(s.desc.IDPrefix)
		now := time.Now().UTC()
		created.CreatedAt, created.UpdatedAt = now, now

		if err := tx.References().Create(ctx, created); err != nil {
			return err
		}
		out = result.Accept(created)
		return nil
	})
	if err != nil && !errors.Is(err, errRejected) {
		l.Error("failed to create reference", "kind", s.kind, "error", err)
		return result.Reject[domain.Reference](systemError())
	}
	if out.Accepted() {
		l.Info("reference created", "kind", s.kind, "id", out.Instance().ID, "name", out.Instance().Name)
	}
	return out
}

// Update validates and rewrites an existing reference. The updated timestamp
// strictly increases on every accepted update; created is preserved. Every
// cached client aggregate is flushed after commit since any of them may
// embed the changed reference.
func (s *ReferenceService) Update(ctx context.Context, ref domain.Reference) result.Result[domain.Reference] {
	l := slogx.FromContext(ctx)
	ref.Kind = s.kind

	if strings.TrimSpace(ref.ID) == "" {
		return result.Reject[domain.Reference](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var out result.Result[domain.Reference]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := s.getByID(ctx, tx, ref.ID)
		if err != nil {
			return err
		}

		out = s.rules.Validate(ctx, tx, ref, validation.OpUpdate)
		if out.Rejected() {
			return errRejected
		}

		updated := out.Instance()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = touch(existing.UpdatedAt)

		if err := tx.References().Update(ctx, updated); err != nil {
			return err
		}
		out = result.Accept(updated)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "update", ref.ID, err, out)
	}
	if out.Accepted() {
		s.Cache.EvictAll()
		l.Info("reference updated", "kind", s.kind, "id", out.Instance().ID)
	}
	return out
}

// Delete removes a reference unless something still links to it. The link
// count runs on the same transaction as the delete.
func (s *ReferenceService) Delete(ctx context.Context, ref domain.Reference) result.Result[domain.Reference] {
	l := slogx.FromContext(ctx)
	ref.Kind = s.kind

	if strings.TrimSpace(ref.ID) == "" {
		return result.Reject[domain.Reference](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var out result.Result[domain.Reference]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := s.getByID(ctx, tx, ref.ID)
		if err != nil {
			return err
		}

		out = s.rules.Validate(ctx, tx, existing, validation.OpDelete)
		if out.Rejected() {
			return errRejected
		}

		if err := tx.References().Delete(ctx, existing.ID); err != nil {
			return err
		}
		out = result.Accept(existing)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "delete", ref.ID, err, out)
	}
	if out.Accepted() {
		s.Cache.EvictAll()
		l.Info("reference deleted", "kind", s.kind, "id", ref.ID)
	}
	return out
}

// FindByID resolves a reference by id. Blank ids are unprocessable,
// unresolved ids are not found.
func (s *ReferenceService) FindByID(ctx context.Context, id string) result.Result[domain.Reference] {
	if strings.TrimSpace(id) == "" {
		return result.Reject[domain.Reference](result.Errorf(result.Unprocessable,
			s.desc.CodePrefix+"-0006", "%s %s id is required.", s.desc.Article, s.desc.Label))
	}

	ref, err := s.Store.References().GetByID(ctx, id)
	if err != nil || ref.Kind != s.kind {
		return s.lookupFailure(ctx, id, err)
	}
	return result.Accept(ref)
}

// FindByName resolves a reference by its kind-scoped unique name.
func (s *ReferenceService) FindByName(ctx context.Context, name string) result.Result[domain.Reference] {
	if strings.TrimSpace(name) == "" {
		return result.Reject[domain.Reference](result.Errorf(result.Unprocessable,
			s.desc.CodePrefix+"-0001", "%s %s name is required.", s.desc.Article, s.desc.Label))
	}

	ref, err := s.Store.References().GetByName(ctx, s.kind, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Reject[domain.Reference](result.Errorf(result.NotFound,
				s.desc.CodePrefix+"-0008", "No such %s name: %s", s.desc.Label, name))
		}
		slogx.FromContext(ctx).Error("reference lookup failed", "kind", s.kind, "name", name, "error", err)
		return result.Reject[domain.Reference](systemError())
	}
	return result.Accept(ref)
}

// List returns every reference of the kind ordered by name.
func (s *ReferenceService) List(ctx context.Context) result.Result[[]domain.Reference] {
	refs, err := s.Store.References().List(ctx, s.kind)
	if err != nil {
		slogx.FromContext(ctx).Error("reference list failed", "kind", s.kind, "error", err)
		return result.Reject[[]domain.Reference](systemError())
	}
	return result.Accept(refs)
}

// FindExistingByID resolves a batch of ids to the references that exist,
// preserving first-occurrence order. Blank, duplicate and unresolvable ids
// are dropped rather than reported; ingress assembly depends on this being
// total over arbitrary input.
func (s *ReferenceService) FindExistingByID(ctx context.Context, ids []string) result.Result[[]domain.Reference] {
	refs := make([]domain.Reference, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		ref, err := s.Store.References().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			slogx.FromContext(ctx).Error("reference batch lookup failed", "kind", s.kind, "id", id, "error", err)
			return result.Reject[[]domain.Reference](systemError())
		}
		if ref.Kind != s.kind {
			continue
		}
		refs = append(refs, ref)
	}
	return result.Accept(refs)
}

// getByID loads the reference inside a mutation's transaction, translating
// absence into the terminal rejection the caller returns.
func (s *ReferenceService) getByID(ctx context.Context, tx store.Tx, id string) (domain.Reference, error) {
	ref, err := tx.References().GetByID(ctx, id)
	if err == nil && ref.Kind != s.kind {
		err = store.ErrNotFound
	}
	return ref, err
}

func (s *ReferenceService) lookupFailure(ctx context.Context, id string, err error) result.Result[domain.Reference] {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return result.Reject[domain.Reference](result.Errorf(result.NotFound,
			"SYS-0001", "No such %s id: %s", s.desc.Label, id))
	}
	slogx.FromContext(ctx).Error("reference lookup failed", "kind", s.kind, "id", id, "error", err)
	return result.Reject[domain.Reference](systemError())
}

func (s *ReferenceService) mutationFailure(ctx context.Context, op, id string, err error, out result.Result[domain.Reference]) result.Result[domain.Reference] {
	switch {
	case errors.Is(err, errRejected):
		return out
	case errors.Is(err, store.ErrNotFound):
		return result.Reject[domain.Reference](result.Errorf(result.NotFound,
			"SYS-0001", "No such %s id: %s", s.desc.Label, id))
	default:
		slogx.FromContext(ctx).Error("reference "+op+" failed", "kind", s.kind, "id", id, "error", err)
		return result.Reject[domain.Reference](systemError())
	}
}

// shapeRule checks the tag-driven field constraints and maps each failure to
// its coded message.
func (s *ReferenceService) shapeRule(ctx context.Context, tx store.Tx, ref domain.Reference) []result.Error {
	var errs []result.Error
	for _, fe := range validation.Struct(ref) {
		switch {
		case fe.Field() == "Name" && fe.Tag() == "max":
			errs = append(errs, result.Errorf(result.Unprocessable, s.desc.CodePrefix+"-0002",
				"%s %s name must be less than 128 characters.", s.desc.Article, s.desc.Label))
		case fe.Field() == "Name":
			errs = append(errs, result.Errorf(result.Unprocessable, s.desc.CodePrefix+"-0001",
				"%s %s name is required.", s.desc.Article, s.desc.Label))
		case fe.Field() == "Description":
			errs = append(errs, result.Errorf(result.Unprocessable, s.desc.CodePrefix+"-0004",
				"%s %s description must be less than 255 characters.", s.desc.Article, s.desc.Label))
		}
	}
	return errs
}

// uniqueNameRule enforces kind-scoped name uniqueness, excluding the entity
// itself so updates can keep their name.
func (s *ReferenceService) uniqueNameRule(ctx context.Context, tx store.Tx, ref domain.Reference) []result.Error {
	if strings.TrimSpace(ref.Name) == "" {
		return nil
	}
	count, err := tx.References().CountByName(ctx, s.kind, ref.Name, ref.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("uniqueness check failed", "kind", s.kind, "name", ref.Name, "error", err)
		return []result.Error{systemError()}
	}
	if count > 0 {
		return []result.Error{result.Errorf(result.Conflict, s.desc.CodePrefix+"-0003",
			"This %s name is already in use.", s.desc.Label)}
	}
	return nil
}

// deleteGuard blocks deletion while anything still links to the reference.
// The four client-embedded kinds count client links; roles count linked
// accounts instead.
func (s *ReferenceService) deleteGuard(ctx context.Context, tx store.Tx, ref domain.Reference) []result.Error {
	count, noun, err := s.linkCount(ctx, tx, ref)
	if err != nil {
		slogx.FromContext(ctx).Error("link count failed", "kind", s.kind, "id", ref.ID, "error", err)
		return []result.Error{systemError()}
	}
	if count == 0 {
		return nil
	}
	return []result.Error{result.Error{
		Code:    s.desc.CodePrefix + "-0005",
		Message: linkedMessage(s.desc.Label, count, noun),
		Kind:    result.Conflict,
	}}
}

func (s *ReferenceService) linkCount(ctx context.Context, tx store.Tx, ref domain.Reference) (int, string, error) {
	if s.kind == domain.KindRole {
		count, err := tx.References().CountAccountLinks(ctx, ref.ID)
		return count, "account", err
	}
	count, err := tx.References().CountClientLinks(ctx, ref.ID)
	return count, "client", err
}

func linkedMessage(label string, count int, noun string) string {
	counted, verb := fmt.Sprintf("1 %s", noun), "is"
	if count != 1 {
		counted, verb = fmt.Sprintf("%d %ss", count, noun), "are"
	}
	return fmt.Sprintf("This %s cannot be deleted, %s %s linked to this %s.", label, counted, verb, label)
}
