package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
	"github.com/stretchr/testify/require"
)

func TestFromDomain(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: HS256", jwk.ErrUnsupportedAlgorithm), http.StatusBadRequest, "UNSUPPORTED_ALGORITHM"},
		{repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{repository.ErrPrivateKeyGone, http.StatusGone, "PRIVATE_KEY_EXPIRED"},
		{repository.ErrNoDatabase, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{fmt.Errorf("%w: insert: timeout", repository.ErrStore), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{fmt.Errorf("%w: rand", jwk.ErrGeneration), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{ErrInvalidJSON, http.StatusBadRequest, "INVALID_JSON"},
	}
	for _, c := range cases {
		got := FromDomain(c.err)
		require.Equal(t, c.status, got.HTTPStatus, c.err.Error())
		require.Equal(t, c.code, got.Code, c.err.Error())
	}
}

func TestWriteError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrInternalServerError.WithCause(fmt.Errorf("secret dsn")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.NotContains(t, rec.Body.String(), "secret dsn")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	e := ErrNotFound.WithDetail("x")
	require.Equal(t, "x", e.Detail)
	require.Empty(t, ErrNotFound.Detail)
}
