package chatbot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greengrocer/storefront/internal/platform/httpx"
)

// Asker answers a question given prior conversation turns.
type Asker interface {
	Ask(ctx context.Context, question string, history []Message) (string, error)
}

// Handler manages chatbot endpoints.
type Handler struct {
	client Asker
	logger *slog.Logger
}

// NewHandler creates a chatbot handler.
func NewHandler(client Asker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers chatbot routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.ask)
}

type askRequest struct {
	Question string    `json:"question"`
	History  []Message `json:"history"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err, "Error processing chatbot request")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		httpx.Message(w, http.StatusBadRequest, "Question is required")
		return
	}

	answer, err := h.client.Ask(r.Context(), question, req.History)
	if err != nil {
		if errors.Is(err, httpx.ErrUnavailable) {
			httpx.RespondError(w, err, "")
			return
		}
		h.logger.Error("chatbot request failed", slog.Any("error", err))
		httpx.Message(w, http.StatusInternalServerError, "Error processing chatbot request")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"response": answer})
}
