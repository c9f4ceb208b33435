package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"monksiq/backend/internal/middleware"
)

// JobEnqueuer hands the raw input off to the async pipeline. Only the job
// id comes back; callers poll the jobs endpoint for progress.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, text, personaID string, metadata map[string]interface{}) (string, error)
}

type Handler struct {
	service *Service
	jobs    JobEnqueuer
}

func NewHandler(service *Service, jobs JobEnqueuer) *Handler {
	return &Handler{service: service, jobs: jobs}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := struct {
		Text      string                 `json:"text"`
		PersonaID string                 `json:"persona_id"`
		Metadata  map[string]interface{} `json:"metadata"`
	}{PersonaID: "default"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Text is required", http.StatusBadRequest)
		return
	}

	count, err := h.service.Ingest(ctx, req.Text, req.PersonaID, req.Metadata)
	if err != nil {
		slog.ErrorContext(ctx, "ingestion failed", "error", err, "persona_id", req.PersonaID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"success":          true,
		"chunks_processed": count,
		"persona_id":       req.PersonaID,
		"message":          fmt.Sprintf("Successfully processed %d chunks for persona '%s'", count, req.PersonaID),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// IngestAsync accepts the same payload as Ingest but queues it instead of
// processing inline. Responds 202 with the job id.
func (h *Handler) IngestAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := struct {
		Text      string                 `json:"text"`
		PersonaID string                 `json:"persona_id"`
		Metadata  map[string]interface{} `json:"metadata"`
	}{PersonaID: "default"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Text is required", http.StatusBadRequest)
		return
	}

	jobID, err := h.jobs.Enqueue(ctx, req.Text, req.PersonaID, req.Metadata)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue ingestion", "error", err, "persona_id", req.PersonaID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	resp := map[string]interface{}{
		"job_id":     jobID,
		"status":     "queued",
		"persona_id": req.PersonaID,
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
