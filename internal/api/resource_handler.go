package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/resource-api/internal/api/shared"
	"github.com/phrazzld/resource-api/internal/platform/logger"
	"github.com/phrazzld/resource-api/internal/redact"
	"github.com/phrazzld/resource-api/internal/service"
)

// URL parameters used by the resource routes.
const (
	ResourceParam = "resource"
	IDParam       = "id"
)

// ResourceHandler serves the list and update endpoints of every resource type.
type ResourceHandler struct {
	service service.ResourceService
	logger  *slog.Logger
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(svc service.ResourceService, logger *slog.Logger) *ResourceHandler {
	if svc == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("service cannot be nil for ResourceHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "resource_handler")),
	}
}

// Routes mounts GET /{resource} and PATCH /{resource}/{id} on r.
func (h *ResourceHandler) Routes(r chi.Router) {
	r.Get("/{"+ResourceParam+"}", h.List)
	r.Patch("/{"+ResourceParam+"}/{"+IDParam+"}", h.Update)
}

// List handles GET /{resource}.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	typeName := chi.URLParam(r, ResourceParam)

	result, err := h.service.List(r.Context(), typeName, r.URL.Query())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	log.Debug("listed resources",
		slog.String("type", typeName),
		slog.Int("count", result.Page.Count))
	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse{
		Data: result.Data,
		Meta: ListMeta{Page: result.Page},
	})
}

// Update handles PATCH /{resource}/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	typeName := chi.URLParam(r, ResourceParam)
	id := chi.URLParam(r, IDParam)

	var env service.UpdateEnvelope
	if err := shared.DecodeJSON(w, r, &env); err != nil {
		log.Debug("invalid request format",
			slog.String("type", typeName),
			slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&env); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	out, err := h.service.Update(r.Context(), typeName, id, &env)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: out})
}

func (h *ResourceHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
