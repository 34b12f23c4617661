package library

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/auth"
	"github.com/vectorforge/canvas/internal/httpx"
	"github.com/vectorforge/canvas/internal/typeid"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Template string `json:"template" validate:"omitempty,oneof=blank sample"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Create(r.Context(), req.Name, req.Template, userID)
	if err != nil {
		h.logger.Error("create document failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, summary)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	documentID, err := routeDocumentID(r)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	summary, err := h.service.Get(r.Context(), documentID, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	summaries, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	documentID, err := routeDocumentID(r)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), documentID, userID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	documentID, err := routeDocumentID(r)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	doc, err := h.service.LatestSnapshot(r.Context(), documentID, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// routeDocumentID reads the document id from the route. Ids that could never
// have been minted are reported as missing.
func routeDocumentID(r *http.Request) (string, error) {
	id := mux.Vars(r)["documentId"]
	if !typeid.IsDocumentID(id) {
		return "", ErrNotFound
	}
	return id, nil
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	default:
		h.logger.Error("service error", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
