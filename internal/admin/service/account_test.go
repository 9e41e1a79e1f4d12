package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/result"
)

func TestAccountCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("accepted create hashes the password", func(t *testing.T) {
		res := e.accounts.Create(ctx, domain.Account{Username: "admin@example.com"}, "password123")
		require.True(t, res.Accepted(), "%v", res.Errors())

		created := res.Instance()
		require.True(t, strings.HasPrefix(created.ID, "acc_"))
		require.NotEqual(t, "password123", created.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("password123", created.PasswordHash))
		require.Equal(t, created.CreatedAt, created.UpdatedAt)
	})

	t.Run("blank username and password accumulate", func(t *testing.T) {
		res := e.accounts.Create(ctx, domain.Account{Username: "  "}, "")
		require.True(t, res.Rejected())
		require.Len(t, res.Errors(), 2)
		require.Equal(t, "ACC-0001", res.Errors()[0].Code)
		require.Equal(t, "An account username is required.", res.Errors()[0].Message)
		require.Equal(t, "ACC-0009", res.Errors()[1].Code)
		require.Equal(t, "An account password is required.", res.Errors()[1].Message)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		res := e.accounts.Create(ctx, domain.Account{Username: "admin@example.com"}, "password123")
		require.True(t, res.Rejected())
		require.Equal(t, "ACC-0003", res.Errors()[0].Code)
		require.Equal(t, result.Conflict, res.Errors()[0].Kind)
	})

	t.Run("roles persist with the account", func(t *testing.T) {
		role := mustCreateRef(t, e.roles, "operator")
		res := e.accounts.Create(ctx, domain.Account{
			Username: "op@example.com",
			Roles:    []domain.Reference{role},
		}, "password123")
		require.True(t, res.Accepted())

		found := e.accounts.FindByID(ctx, res.Instance().ID)
		require.True(t, found.Accepted())
		require.Len(t, found.Instance().Roles, 1)
		require.Equal(t, "operator", found.Instance().Roles[0].Name)
	})
}

func TestAccountUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.accounts.Create(ctx, domain.Account{Username: "admin@example.com"}, "password123").Instance()

	t.Run("update replaces roles and keeps the hash", func(t *testing.T) {
		role := mustCreateRef(t, e.roles, "auditor")
		created.Roles = []domain.Reference{role}
		res := e.accounts.Update(ctx, created)
		require.True(t, res.Accepted(), "%v", res.Errors())

		updated := res.Instance()
		require.Equal(t, created.PasswordHash, updated.PasswordHash)
		require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		require.Len(t, updated.Roles, 1)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		res := e.accounts.Update(ctx, domain.Account{ID: "acc_missing", Username: "x"})
		require.True(t, res.Rejected())
		require.Equal(t, "SYS-0001", res.Errors()[0].Code)
	})

	t.Run("blank id is rejected", func(t *testing.T) {
		res := e.accounts.Update(ctx, domain.Account{Username: "x"})
		require.True(t, res.Rejected())
		require.Equal(t, "ENT-0001", res.Errors()[0].Code)
	})
}

func TestAccountDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	role := mustCreateRef(t, e.roles, "operator")
	created := e.accounts.Create(ctx, domain.Account{
		Username: "op@example.com",
		Roles:    []domain.Reference{role},
	}, "password123").Instance()

	res := e.accounts.Delete(ctx, created)
	require.True(t, res.Accepted())

	find := e.accounts.FindByID(ctx, created.ID)
	require.True(t, find.Rejected())
	require.Equal(t, "SYS-0001", find.Errors()[0].Code)

	// The role link is gone with the account, so the role deletes cleanly.
	require.True(t, e.roles.Delete(ctx, role).Accepted())
}

func TestAccountFind(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.accounts.Create(ctx, domain.Account{Username: "admin@example.com"}, "password123").Instance()

	t.Run("by id", func(t *testing.T) {
		res := e.accounts.FindByID(ctx, created.ID)
		require.True(t, res.Accepted())
		require.Equal(t, "admin@example.com", res.Instance().Username)
	})

	t.Run("blank id is unprocessable", func(t *testing.T) {
		res := e.accounts.FindByID(ctx, "  ")
		require.True(t, res.Rejected())
		require.Equal(t, "ACC-0006", res.Errors()[0].Code)
		require.Equal(t, "An account id is required.", res.Errors()[0].Message)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		res := e.accounts.FindByID(ctx, "csrx")
		require.True(t, res.Rejected())
		require.Equal(t, "SYS-0001", res.Errors()[0].Code)
		require.Equal(t, "No such account id: csrx", res.Errors()[0].Message)
	})

	t.Run("by username", func(t *testing.T) {
		res := e.accounts.FindByUsername(ctx, "admin@example.com")
		require.True(t, res.Accepted())
		require.Equal(t, created.ID, res.Instance().ID)
	})

	t.Run("unknown username is not found", func(t *testing.T) {
		res := e.accounts.FindByUsername(ctx, "csrx")
		require.True(t, res.Rejected())
		require.Equal(t, "ACC-0008", res.Errors()[0].Code)
		require.Equal(t, "No such username: csrx", res.Errors()[0].Message)
	})
}

func TestAccountUpdatePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.accounts.Create(ctx, domain.Account{Username: "admin@example.com"}, "password123").Instance()

	t.Run("missing inputs accumulate", func(t *testing.T) {
		res := e.accounts.UpdatePassword(ctx, created.ID, "  ", "")
		require.True(t, res.Rejected())
		require.Len(t, res.Errors(), 2)
		require.Equal(t, "Your current password must be provided.", res.Errors()[0].Message)
		require.Equal(t, "Your new password must be provided.", res.Errors()[1].Message)
	})

	t.Run("new password length is enforced", func(t *testing.T) {
		for _, pw := range []string{"abc", strings.Repeat("a", 51)} {
			res := e.accounts.UpdatePassword(ctx, created.ID, "password123", pw)
			require.True(t, res.Rejected())
			require.Equal(t, "ACC-0012", res.Errors()[0].Code)
			require.Equal(t, "Your new password must be between 8 and 50 characters.", res.Errors()[0].Message)
		}
	})

	t.Run("wrong current password is rejected", func(t *testing.T) {
		res := e.accounts.UpdatePassword(ctx, created.ID, "invalid", "newpassword1")
		require.True(t, res.Rejected())
		require.Equal(t, "ACC-0013", res.Errors()[0].Code)
		require.Equal(t,
			"The password you provided does not match your current password. Please try again.",
			res.Errors()[0].Message)
	})

	t.Run("accepted rotation persists the new hash", func(t *testing.T) {
		res := e.accounts.UpdatePassword(ctx, created.ID, "password123", "newpassword1")
		require.True(t, res.Accepted(), "%v", res.Errors())

		reloaded := e.accounts.FindByID(ctx, created.ID).Instance()
		require.NoError(t, cryptox.VerifyPassword("newpassword1", reloaded.PasswordHash))
		require.Error(t, cryptox.VerifyPassword("password123", reloaded.PasswordHash))
	})

	t.Run("updated strictly increases across rapid rotations", func(t *testing.T) {
		first := e.accounts.UpdatePassword(ctx, created.ID, "newpassword1", "newpassword2")
		require.True(t, first.Accepted(), "%v", first.Errors())
		second := e.accounts.UpdatePassword(ctx, created.ID, "newpassword2", "newpassword3")
		require.True(t, second.Accepted(), "%v", second.Errors())

		require.True(t, second.Instance().UpdatedAt.After(first.Instance().UpdatedAt),
			"updated did not strictly increase: first=%v second=%v",
			first.Instance().UpdatedAt, second.Instance().UpdatedAt)

		reloaded := e.accounts.FindByID(ctx, created.ID).Instance()
		require.True(t, reloaded.UpdatedAt.After(first.Instance().UpdatedAt),
			"persisted updated was not bumped: reloaded=%v first=%v",
			reloaded.UpdatedAt, first.Instance().UpdatedAt)
	})

	t.Run("blank account id is unprocessable", func(t *testing.T) {
		res := e.accounts.UpdatePassword(ctx, "", "a", "b")
		require.True(t, res.Rejected())
		require.Equal(t, "ACC-0006", res.Errors()[0].Code)
	})
}
