package logger

import (
	"context"
	"io"
	"log/slog"

	"monksiq/backend/internal/middleware"
)

// ContextHandler decorates another slog handler with the correlation
// id carried in the context, so every log line from a request or a
// queue message can be tied back to its origin.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

// Setup installs a JSON logger writing to w as the process default.
func Setup(w io.Writer) *slog.Logger {
	l := slog.New(NewContextHandler(slog.NewJSONHandler(w, nil)))
	slog.SetDefault(l)
	return l
}
