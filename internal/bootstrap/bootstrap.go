package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okomarov/mrag-assistant/internal/config"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
	"github.com/okomarov/mrag-assistant/internal/core/usecase"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/extractor/pdfdoc"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/llm/ollama"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/queue/nats"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/repository/postgres"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/resilience"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/storage/localfs"
	"github.com/okomarov/mrag-assistant/internal/infrastructure/vector/qdrant"
)

// App wires the full dependency graph once; api and worker binaries pick
// the parts they serve.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository
	Expander  ports.QueryExpander

	AskUC     *usecase.AskUseCase
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	if err := documents.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	fragments := postgres.NewFragmentRepository(db)
	chat := postgres.NewChatRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		RequestsPerSecond: cfg.OllamaRPS,
		Timeout:           time.Duration(cfg.GenerationTimeout) * time.Second,
		Executor:          executor,
	})
	generator := ollama.NewGenerator(ollamaClient)
	expander := ollama.NewExpander(ollamaClient)
	summarizer := ollama.NewSummarizer(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	search := qdrant.NewSearchClient(vectorDB, embedder)
	extractor := pdfdoc.NewExtractor(storage)

	retriever := usecase.NewRetriever(search, fragments, usecase.RetrievalConfig{
		SearchLimit:    cfg.SearchLimit,
		ScoreThreshold: cfg.ScoreThreshold,
		RankingLimit:   cfg.RankingLimit,
		Dedup:          usecase.DedupStrategy(cfg.DedupStrategy),
	}, logger)
	memory := usecase.NewConversationMemory(chat, logger)

	askUC := usecase.NewAskUseCase(expander, retriever, memory, generator, usecase.AskConfig{
		HistoryTurns:      cfg.HistoryTurns,
		GenerationTimeout: time.Duration(cfg.GenerationTimeout) * time.Second,
	}, logger)
	ingestUC := usecase.NewIngestUseCase(documents, storage, queue)
	processUC := usecase.NewProcessUseCase(documents, extractor, summarizer, embedder, vectorDB, fragments)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Documents: documents,
		Expander:  expander,

		AskUC:     askUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
