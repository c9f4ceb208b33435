package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"monksiq/backend/internal/middleware"
)

type ChunkRepo interface {
	PersonaCounts(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context) (int, error)
}

type JobRepo interface {
	CountByStatus(ctx context.Context, status string) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type Handler struct {
	chunkRepo   ChunkRepo
	jobRepo     JobRepo
	vectorStore VectorStore
}

func NewHandler(c ChunkRepo, j JobRepo, v VectorStore) *Handler {
	return &Handler{chunkRepo: c, jobRepo: j, vectorStore: v}
}

type StatsResponse struct {
	Personas      int `json:"personas"`
	Chunks        int `json:"chunks"`
	IndexedChunks int `json:"indexed_chunks"`
	FailedJobs    int `json:"failed_jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.chunkRepo.PersonaCounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count personas", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count personas", http.StatusInternalServerError)
		return
	}

	chunks, err := h.chunkRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	failed, err := h.jobRepo.CountByStatus(ctx, "failed")
	if err != nil {
		slog.ErrorContext(ctx, "failed to count failed jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count failed jobs", http.StatusInternalServerError)
		return
	}

	indexed, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count indexed chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count indexed chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Personas:      len(counts),
		Chunks:        chunks,
		IndexedChunks: indexed,
		FailedJobs:    failed,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
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
