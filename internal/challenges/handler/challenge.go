package handler

import (
	"net/http"

	"futsal/internal/challenges/service"
	httputil "futsal/pkg/http"
	"futsal/pkg/logger"
	"futsal/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ChallengeHandler struct {
	service service.ChallengeService
	log     *logger.Logger
}

func NewChallengeHandler(service service.ChallengeService, log *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		log:     log,
	}
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.ChallengeRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	challenge, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, challenge); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ChallengeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	challenge, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, challenge); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	challenges, err := h.service.ListByVenue(r.Context(), query.Get("venue_id"), query.Get("status"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, challenges); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChallengeHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Accept", err)
		return
	}

	challenge, err := h.service.Accept(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Accept", err)
		return
	}

	if err := httputil.WriteSuccess(w, challenge); err != nil {
		h.log.Error("failed to write success response", "handler", "Accept", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChallengeHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	challenge, err := h.service.Cancel(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, challenge); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChallengeHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	if err := h.service.Remove(r.Context(), caller, ps.ByName("id")); err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ChallengeHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ChallengeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/challenges", h.Create)
	router.GET("/api/v1/challenges", h.List)
	router.GET("/api/v1/challenges/id/:id", h.GetByID)
	router.POST("/api/v1/challenges/id/:id/accept", h.Accept)
	router.POST("/api/v1/challenges/id/:id/cancel", h.Cancel)
	router.DELETE("/api/v1/challenges/id/:id", h.Remove)
}
