package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"monksiq/backend/features/chat"
	"monksiq/backend/features/ingest"
	"monksiq/backend/features/job"
	"monksiq/backend/features/personas"
	"monksiq/backend/features/stats"
	"monksiq/backend/internal/adapter/gemini"
	"monksiq/backend/internal/adapter/openai"
	"monksiq/backend/internal/config"
	"monksiq/backend/internal/llm"
	"monksiq/backend/internal/middleware"
	"monksiq/backend/internal/persona"
	"monksiq/backend/internal/retrieval"
	"monksiq/backend/internal/worker"
)

// Database is what New needs from the SQL layer. Repositories require
// the concrete *sql.DB; New casts internally, which holds for sqlmock
// in tests since that is a *sql.DB underneath.
type Database interface {
	Ping() error
}

// VectorIndex is the union of index capabilities the features consume.
// *weaviate.Index provides all of them.
type VectorIndex interface {
	Upsert(ctx context.Context, rec ingest.ChunkRecord) error
	FindNeighbors(ctx context.Context, vec []float32, personaID string, topK int) ([]retrieval.Neighbor, error)
	DeleteByPersona(ctx context.Context, personaID string) error
	CountChunks(ctx context.Context) (int, error)
}

// TaskPublisher pushes messages onto the queue. Satisfied by
// *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer produces an assistant reply for a message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (string, error)
}

// Options overrides selected collaborators. Tests inject fake LLM
// adapters here so wiring the app needs no real credentials.
type Options struct {
	Embedder  Embedder
	Completer Completer
}

type App struct {
	Handler        http.Handler
	TaskConsumer   *worker.TaskConsumer
	ResultConsumer *worker.ResultConsumer

	port int
}

func New(
	cfg *config.Config,
	db Database,
	index VectorIndex,
	taskPub TaskPublisher,
	logger *slog.Logger,
	opts ...*Options,
) (*App, error) {
	sqlDB := db.(*sql.DB)

	var o Options
	if len(opts) > 0 && opts[0] != nil {
		o = *opts[0]
	}

	embedder, completer, err := buildLLM(cfg, o)
	if err != nil {
		return nil, err
	}

	profile := persona.Default()
	if cfg.PersonaProfilePath != "" {
		loaded, err := persona.Load(cfg.PersonaProfilePath)
		if err != nil {
			logger.Warn("failed to load persona profile, using built-in default",
				"path", cfg.PersonaProfilePath, "error", err)
		} else {
			profile = loaded
		}
	}

	// Feature: Ingest
	chunkRepo := ingest.NewPostgresRepo(sqlDB)
	ingestService := ingest.NewService(chunkRepo, embedder, index, cfg.ChunkSize, cfg.ChunkOverlap)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(sqlDB)
	jobService := job.NewService(jobRepo, taskPub)
	jobHandler := job.NewHandler(jobService)

	ingestHandler := ingest.NewHandler(ingestService, jobService)

	// Feature: Personas
	personaHandler := personas.NewHandler(personas.NewService(chunkRepo, index))

	// Feature: Retrieval & Chat
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		logger.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, index, chunkRepo, queryLogger)
	chatHandler := chat.NewHandler(chat.NewService(completer, retrievalService, profile, cfg.RetrievalTopK))

	// Feature: Stats
	statsHandler := stats.NewHandler(chunkRepo, jobRepo, index)

	enableCORS := middleware.CORS(cfg.AllowedOrigins)

	// Async ingestion ships the raw text inside the queued task, so
	// the request body cap follows the NSQ message size limit.
	asyncIngest := ingestHandler.IngestAsync
	if cfg.NSQMaxMsgSize > 0 {
		asyncIngest = func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.NSQMaxMsgSize)
			ingestHandler.IngestAsync(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", middleware.CorrelationID(enableCORS(apiInfo)))

	mux.Handle("POST /api/ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("POST /api/ingest/async", middleware.CorrelationID(enableCORS(asyncIngest)))

	mux.Handle("GET /api/jobs", middleware.CorrelationID(enableCORS(jobHandler.List)))
	mux.Handle("GET /api/jobs/{id}", middleware.CorrelationID(enableCORS(jobHandler.Get)))

	mux.Handle("POST /api/chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))

	mux.Handle("GET /api/personas", middleware.CorrelationID(enableCORS(personaHandler.List)))
	mux.Handle("DELETE /api/personas/{id}", middleware.CorrelationID(enableCORS(personaHandler.Delete)))

	mux.Handle("GET /api/stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	// Method-specific patterns never match preflight, so OPTIONS lands
	// here for every path and the CORS layer answers it.
	mux.Handle("OPTIONS /", enableCORS(func(http.ResponseWriter, *http.Request) {}))

	mux.HandleFunc("GET /health", health)

	return &App{
		Handler:        mux,
		TaskConsumer:   worker.NewTaskConsumer(ingestService, jobService, taskPub),
		ResultConsumer: worker.NewResultConsumer(jobService),
		port:           cfg.ServerPort,
	}, nil
}

// buildLLM picks the configured provider unless Options already
// supplies adapters. Embeddings and completions come from the same
// client.
func buildLLM(cfg *config.Config, o Options) (Embedder, Completer, error) {
	embedder, completer := o.Embedder, o.Completer
	if embedder != nil && completer != nil {
		return embedder, completer, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		client := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIEmbedModel)
		if embedder == nil {
			embedder = client
		}
		if completer == nil {
			completer = client
		}
	default:
		client, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client error: %w", err)
		}
		if embedder == nil {
			embedder = client
		}
		if completer == nil {
			completer = client
		}
	}
	return embedder, completer, nil
}

func apiInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":    "Monks.IQ API",
		"version": "1.0.0",
		"status":  "running",
	})
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
