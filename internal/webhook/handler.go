package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/fylein/fyle-integrations-imports/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	processor *Processor
	logger    *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, processor *Processor, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		processor:   processor,
		logger:      logger,
	}
}

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleAttributeWebhook receives one attribute change event for a workspace
// and applies it through the processor.
func (h *Handler) HandleAttributeWebhook(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := strconv.ParseInt(chi.URLParam(r, "workspaceID"), 10, 64)
	if err != nil || workspaceID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Error("invalid webhook request", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.logger.Info("received attribute webhook",
		"workspace_id", workspaceID,
		"action", event.Action,
		"resource", event.Resource)

	if err := h.processor.Process(r.Context(), workspaceID, event); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, webhookResponse{Status: "ok", Message: "processed"})
}

// RegisterRoutes mounts the webhook endpoint on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/workspaces/{workspaceID}/webhooks/attributes", h.HandleAttributeWebhook)
}
