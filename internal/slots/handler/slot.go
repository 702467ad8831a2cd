package handler

import (
	"net/http"

	"futsal/internal/slots/service"
	httputil "futsal/pkg/http"
	"futsal/pkg/logger"
	"futsal/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Generate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Generate", err)
		return
	}

	var req model.GenerateSlotsRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "Generate", err)
		return
	}

	result, err := h.service.Generate(r.Context(), caller, ps.ByName("venue_id"), &req)
	if err != nil {
		h.writeError(w, "Generate", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Generate", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slots, err := h.service.ListByDate(r.Context(), ps.ByName("venue_id"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.RequireIdentity(r)
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	result, err := h.service.RemoveFree(r.Context(), caller, ps.ByName("venue_id"))
	if err != nil {
		h.writeError(w, "Remove", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Remove", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/venues/:venue_id/slots", h.Generate)
	router.GET("/api/v1/venues/:venue_id/slots", h.List)
	router.DELETE("/api/v1/venues/:venue_id/slots", h.Remove)
}
