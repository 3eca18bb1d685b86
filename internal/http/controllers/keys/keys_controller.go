// Package keys contiene el controller de publicación y administración de claves.
package keys

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	dto "github.com/dropDatabas3/hellojwks/internal/http/dto/keys"
	httperrors "github.com/dropDatabas3/hellojwks/internal/http/errors"
	"github.com/dropDatabas3/hellojwks/internal/http/helpers"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Service es lo que el controller necesita de keystore.Manager.
type Service interface {
	Create(ctx context.Context, alg string) (*repository.Record, error)
	JWKSJSON(ctx context.Context) ([]byte, error)
	GetPrivate(ctx context.Context, id uuid.UUID) (*repository.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Controller maneja /.well-known/jwks.json y /jwks.
type Controller struct {
	service Service
}

// NewController crea un nuevo controller de claves.
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetJWKS maneja GET/HEAD /.well-known/jwks.json
func (c *Controller) GetJWKS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.GetJWKS"))

	data, err := c.service.JWKSJSON(ctx)
	if err != nil {
		log.Error("failed to build JWKS", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, data)
}

// Create maneja POST /jwks
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Create"))

	var req dto.CreateKeyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	alg := strings.TrimSpace(req.Alg)

	rec, err := c.service.Create(ctx, alg)
	if err != nil {
		appErr := httperrors.FromDomain(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("key creation failed", logger.Alg(alg), logger.Err(err))
		} else {
			log.Debug("key creation rejected", logger.Alg(alg), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	w.Header().Set("Location", "/jwks/"+rec.ID.String())
	helpers.WriteJSON(w, http.StatusCreated, dto.FromRecord(rec))
}

// Get maneja GET /jwks/{id}
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Get"))

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rec, err := c.service.GetPrivate(ctx, id)
	if err != nil {
		appErr := httperrors.FromDomain(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("key fetch failed", logger.KeyID(id.String()), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.FromRecord(rec))
}

// Delete maneja DELETE /jwks/{id}
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.Delete"))

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := c.service.Delete(ctx, id); err != nil {
		appErr := httperrors.FromDomain(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("key delete failed", logger.KeyID(id.String()), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseID lee {id} de la ruta. Devuelve false si ya escribió el error.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("id debe ser un UUID"))
		return uuid.Nil, false
	}
	return id, true
}
