// Package errors define el formato de error JSON de la API y el mapeo
// de errores de dominio (jwk, repository) a respuestas HTTP.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta HTTP para err.
// Errores que no son *AppError se pasan por FromDomain.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromDomain(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromDomain traduce los sentinels de dominio a su AppError.
// El resto cae en FromError (500 con la causa adjunta).
func FromDomain(err error) *AppError {
	var appErr *AppError
	switch {
	case err == nil:
		return ErrInternalServerError
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, jwk.ErrUnsupportedAlgorithm):
		return ErrUnsupportedAlgorithm.WithCause(err)
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case errors.Is(err, repository.ErrPrivateKeyGone):
		return ErrPrivateKeyGone.WithCause(err)
	case errors.Is(err, repository.ErrNoDatabase):
		return ErrServiceUnavailable.WithCause(err)
	}
	return FromError(err)
}
