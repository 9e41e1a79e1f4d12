package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/internal/admin/validation"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/idx"
	"github.com/castellan/castellan/pkg/result"
	"github.com/castellan/castellan/pkg/slogx"
)

type AccountService struct {
	Store store.Store

	rules *validation.Rules[domain.Account]
}

func NewAccountService(st store.Store) *AccountService {
	s := &AccountService{Store: st}
	s.rules = validation.NewRules[domain.Account]().
		On([]validation.Operation{validation.OpCreate, validation.OpUpdate},
			s.shapeRule, s.uniqueUsernameRule)
	return s
}

// Create validates and persists a new account. The password is hashed
// before anything touches the store; plaintext never persists.
func (s *AccountService) Create(ctx context.Context, account domain.Account, password string) result.Result[domain.Account] {
	l := slogx.FromContext(ctx)

	var out result.Result[domain.Account]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		out = s.rules.Validate(ctx, tx, account, validation.OpCreate)
		errs := out.Errors()
		if strings.TrimSpace(password) == "" {
			errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0009",
				"An account password is required."))
		}
		if len(errs) > 0 {
			out = result.Reject[domain.Account](errs...)
			return errRejected
		}

		hash, err := cryptox.HashPassword(password)
		if err != nil {
			return err
		}

		created := out.Instance()
		created.ID = idx.Prefixed("acc")
		created.PasswordHash = hash
		now := time.Now().UTC()
		created.CreatedAt, created.UpdatedAt = now, now

		if err := tx.Accounts().Create(ctx, created); err != nil {
			return err
		}
		out = result.Accept(created)
		return nil
	})
	if err != nil && !errors.Is(err, errRejected) {
		l.Error("failed to create account", "error", err)
		return result.Reject[domain.Account](systemError())
	}
	if out.Accepted() {
		l.Info("account created", "id", out.Instance().ID, "username", out.Instance().Username)
	}
	return out
}

// Update validates and rewrites the account's mutable fields and replaces
// its role links. The password hash is untouched; use UpdatePassword.
func (s *AccountService) Update(ctx context.Context, account domain.Account) result.Result[domain.Account] {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(account.ID) == "" {
		return result.Reject[domain.Account](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var out result.Result[domain.Account]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Accounts().GetByID(ctx, account.ID)
		if err != nil {
			return err
		}

		out = s.rules.Validate(ctx, tx, account, validation.OpUpdate)
		if out.Rejected() {
			return errRejected
		}

		updated := out.Instance()
		updated.PasswordHash = existing.PasswordHash
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = touch(existing.UpdatedAt)

		if err := tx.Accounts().Update(ctx, updated); err != nil {
			return err
		}
		out = result.Accept(updated)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "update", account.ID, err, out)
	}
	if out.Accepted() {
		l.Info("account updated", "id", out.Instance().ID)
	}
	return out
}

// Delete removes the account and its role links.
func (s *AccountService) Delete(ctx context.Context, account domain.Account) result.Result[domain.Account] {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(account.ID) == "" {
		return result.Reject[domain.Account](
			result.Errorf(result.Unprocessable, "ENT-0001", "An id is required."))
	}

	var out result.Result[domain.Account]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Accounts().GetByID(ctx, account.ID)
		if err != nil {
			return err
		}
		if err := tx.Accounts().Delete(ctx, existing.ID); err != nil {
			return err
		}
		out = result.Accept(existing)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "delete", account.ID, err, out)
	}
	if out.Accepted() {
		l.Info("account deleted", "id", account.ID)
	}
	return out
}

// UpdatePassword rotates the account's password after checking the current
// one. All input failures accumulate; the current-password match is only
// checked once the inputs are well-formed.
func (s *AccountService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword string) result.Result[domain.Account] {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(accountID) == "" {
		return result.Reject[domain.Account](result.Errorf(result.Unprocessable,
			"ACC-0006", "An account id is required."))
	}

	var errs []result.Error
	if strings.TrimSpace(currentPassword) == "" {
		errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0010",
			"Your current password must be provided."))
	}
	if strings.TrimSpace(newPassword) == "" {
		errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0011",
			"Your new password must be provided."))
	} else if len(newPassword) < 8 || len(newPassword) > 50 {
		errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0012",
			"Your new password must be between 8 and 50 characters."))
	}
	if len(errs) > 0 {
		return result.Reject[domain.Account](errs...)
	}

	var out result.Result[domain.Account]
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		if err := cryptox.VerifyPassword(currentPassword, existing.PasswordHash); err != nil {
			out = result.Reject[domain.Account](result.Errorf(result.Unprocessable, "ACC-0013",
				"The password you provided does not match your current password. Please try again."))
			return errRejected
		}

		hash, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return err
		}
		updatedAt := touch(existing.UpdatedAt)
		if err := tx.Accounts().UpdatePasswordHash(ctx, existing.ID, hash, updatedAt); err != nil {
			return err
		}

		existing.PasswordHash = hash
		existing.UpdatedAt = updatedAt
		out = result.Accept(existing)
		return nil
	})
	if err != nil {
		return s.mutationFailure(ctx, "password update", accountID, err, out)
	}
	if out.Accepted() {
		l.Info("account password updated", "id", accountID)
	}
	return out
}

// FindByID resolves an account by id.
func (s *AccountService) FindByID(ctx context.Context, id string) result.Result[domain.Account] {
	if strings.TrimSpace(id) == "" {
		return result.Reject[domain.Account](result.Errorf(result.Unprocessable,
			"ACC-0006", "An account id is required."))
	}

	account, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Reject[domain.Account](result.Errorf(result.NotFound,
				"SYS-0001", "No such account id: %s", id))
		}
		slogx.FromContext(ctx).Error("account lookup failed", "id", id, "error", err)
		return result.Reject[domain.Account](systemError())
	}
	return result.Accept(account)
}

// FindByUsername resolves an account by its unique username.
func (s *AccountService) FindByUsername(ctx context.Context, username string) result.Result[domain.Account] {
	if strings.TrimSpace(username) == "" {
		return result.Reject[domain.Account](result.Errorf(result.Unprocessable,
			"ACC-0001", "An account username is required."))
	}

	account, err := s.Store.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Reject[domain.Account](result.Errorf(result.NotFound,
				"ACC-0008", "No such username: %s", username))
		}
		slogx.FromContext(ctx).Error("account lookup failed", "username", username, "error", err)
		return result.Reject[domain.Account](systemError())
	}
	return result.Accept(account)
}

// List returns every account ordered by username.
func (s *AccountService) List(ctx context.Context) result.Result[[]domain.Account] {
	accounts, err := s.Store.Accounts().List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("account list failed", "error", err)
		return result.Reject[[]domain.Account](systemError())
	}
	return result.Accept(accounts)
}

func (s *AccountService) mutationFailure(ctx context.Context, op, id string, err error, out result.Result[domain.Account]) result.Result[domain.Account] {
	switch {
	case errors.Is(err, errRejected):
		return out
	case errors.Is(err, store.ErrNotFound):
		return result.Reject[domain.Account](result.Errorf(result.NotFound,
			"SYS-0001", "No such account id: %s", id))
	default:
		slogx.FromContext(ctx).Error("account "+op+" failed", "id", id, "error", err)
		return result.Reject[domain.Account](systemError())
	}
}

func (s *AccountService) shapeRule(ctx context.Context, tx store.Tx, account domain.Account) []result.Error {
	var errs []result.Error
	for _, fe := range validation.Struct(account) {
		switch {
		case fe.Field() == "Username" && fe.Tag() == "max":
			errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0002",
				"An account username must be less than 128 characters."))
		case fe.Field() == "Username":
			errs = append(errs, result.Errorf(result.Unprocessable, "ACC-0001",
				"An account username is required."))
		}
	}
	return errs
}

func (s *AccountService) uniqueUsernameRule(ctx context.Context, tx store.Tx, account domain.Account) []result.Error {
	if strings.TrimSpace(account.Username) == "" {
		return nil
	}
	count, err := tx.Accounts().CountByUsername(ctx, account.Username, account.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("username uniqueness check failed", "username", account.Username, "error", err)
		return []result.Error{systemError()}
	}
	if count > 0 {
		return []result.Error{result.Errorf(result.Conflict, "ACC-0003",
			"This account username is already in use.")}
	}
	return nil
}
