package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"monksiq/backend/internal/llm"
	"monksiq/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Defaults are seeded before decoding; absent fields keep them.
	req := struct {
		Messages    []llm.Message `json:"messages"`
		PersonaID   string        `json:"persona_id"`
		UseContext  bool          `json:"use_context"`
		Temperature float32       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{PersonaID: "default", UseContext: true, Temperature: 0.7, MaxTokens: 1000}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Messages) == 0 {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Messages are required", http.StatusBadRequest)
		return
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			h.writeError(ctx, w, "VALIDATION_ERROR", fmt.Sprintf("Invalid message role '%s'", m.Role), http.StatusBadRequest)
			return
		}
	}

	result, err := h.service.Complete(ctx, Request{
		Messages:    req.Messages,
		PersonaID:   req.PersonaID,
		UseContext:  req.UseContext,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "chat completion failed", "persona_id", req.PersonaID, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"message":      result.Message,
		"context_used": result.ContextUsed,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
