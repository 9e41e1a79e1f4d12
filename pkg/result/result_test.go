package result

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccepted(t *testing.T) {
	t.Parallel()

	res := Accept("instance")
	require.True(t, res.Accepted())
	require.False(t, res.Rejected())
	require.Equal(t, "instance", res.Instance())
	require.Empty(t, res.Errors())
	require.NoError(t, res.Err())
	require.Equal(t, http.StatusOK, res.Status())
}

func TestRejected(t *testing.T) {
	t.Parallel()

	first := Errorf(Unprocessable, "AUD-0001", "An audience name is required.")
	second := Errorf(Conflict, "AUD-0003", "This audience name is already in use.")

	res := Reject[string](first, second)
	require.True(t, res.Rejected())
	require.False(t, res.Accepted())

	require.Equal(t, []Error{first, second}, res.Errors())
	require.EqualError(t, res.Err(), "AUD-0001: An audience name is required.")
	require.Equal(t, http.StatusUnprocessableEntity, res.Status())
}

func TestRejectWithoutErrorsPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { Reject[string]() })
}

func TestKindHTTPStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusUnprocessableEntity, Unprocessable.HTTPStatus())
	require.Equal(t, http.StatusConflict, Conflict.HTTPStatus())
	require.Equal(t, http.StatusNotFound, NotFound.HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, SystemError.HTTPStatus())
}

func TestStatusFollowsFirstErrorKind(t *testing.T) {
	t.Parallel()

	res := Reject[int](
		Errorf(Conflict, "SCP-0005", "This scope cannot be deleted, 2 clients are linked to this scope."),
		Errorf(Unprocessable, "SCP-0001", "A scope name is required."),
	)
	require.Equal(t, http.StatusConflict, res.Status())
}
