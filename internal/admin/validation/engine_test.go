package validation

import (
	"context"
	"testing"

	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/result"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string `validate:"required,notblank,max=8"`
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	rules := NewRules[widget]().
		On([]Operation{OpCreate},
			func(ctx context.Context, tx store.Tx, w widget) []result.Error {
				return []result.Error{result.Errorf(result.Unprocessable, "WID-0001", "first")}
			},
			func(ctx context.Context, tx store.Tx, w widget) []result.Error {
				return []result.Error{result.Errorf(result.Conflict, "WID-0003", "second")}
			},
		)

	res := rules.Validate(context.Background(), nil, widget{}, OpCreate)
	require.True(t, res.Rejected())
	require.Len(t, res.Errors(), 2)
	require.Equal(t, "WID-0001", res.Errors()[0].Code)
	require.Equal(t, "WID-0003", res.Errors()[1].Code)
}

func TestValidateRunsOnlyMatchingOperation(t *testing.T) {
	rules := NewRules[widget]().
		On([]Operation{OpDelete},
			func(ctx context.Context, tx store.Tx, w widget) []result.Error {
				return []result.Error{result.Errorf(result.Conflict, "WID-0005", "guarded")}
			},
		)

	res := rules.Validate(context.Background(), nil, widget{Name: "ok"}, OpCreate)
	require.True(t, res.Accepted())
	require.Equal(t, "ok", res.Instance().Name)

	res = rules.Validate(context.Background(), nil, widget{Name: "ok"}, OpDelete)
	require.True(t, res.Rejected())
}

func TestValidateSharedRulesAcrossOperations(t *testing.T) {
	calls := 0
	rules := NewRules[widget]().
		On([]Operation{OpCreate, OpUpdate},
			func(ctx context.Context, tx store.Tx, w widget) []result.Error {
				calls++
				return nil
			},
		)

	require.True(t, rules.Validate(context.Background(), nil, widget{}, OpCreate).Accepted())
	require.True(t, rules.Validate(context.Background(), nil, widget{}, OpUpdate).Accepted())
	require.Equal(t, 2, calls)
}

func TestStructTagValidation(t *testing.T) {
	t.Run("clean value has no failures", func(t *testing.T) {
		require.Nil(t, Struct(widget{Name: "fine"}))
	})

	t.Run("missing field fails required", func(t *testing.T) {
		errs := Struct(widget{})
		require.Len(t, errs, 1)
		require.Equal(t, "required", errs[0].Tag())
	})

	t.Run("whitespace fails notblank", func(t *testing.T) {
		errs := Struct(widget{Name: "   "})
		require.Len(t, errs, 1)
		require.Equal(t, "notblank", errs[0].Tag())
	})

	t.Run("oversized field fails max", func(t *testing.T) {
		errs := Struct(widget{Name: "waytoolongname"})
		require.Len(t, errs, 1)
		require.Equal(t, "max", errs[0].Tag())
	})
}
