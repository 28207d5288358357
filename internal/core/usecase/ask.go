package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// fallbackAnswer is surfaced when the model output cannot be parsed.
const fallbackAnswer = "I'm sorry, I could not produce an answer right now. Please try again."

type AskConfig struct {
	// HistoryTurns is the number of prior turn pairs included in the prompt.
	HistoryTurns int
	// GenerationTimeout bounds the model call. Multi-modal payloads are
	// large, so this is minutes-scale.
	GenerationTimeout time.Duration
}

func (c AskConfig) normalize() AskConfig {
	out := c
	if out.HistoryTurns <= 0 {
		out.HistoryTurns = 5
	}
	if out.GenerationTimeout <= 0 {
		out.GenerationTimeout = 5 * time.Minute
	}
	return out
}

// AskObserver receives pipeline observations for metrics. Implementations
// must not block.
type AskObserver interface {
	ObserveRetrieval(subQueries, references int)
	ObserveGate(status string)
	ObserveMemoryWriteFailure()
}

// AskUseCase runs one question-answering turn: expand, retrieve, assemble,
// generate, gate, record.
type AskUseCase struct {
	expander  ports.QueryExpander
	retriever *Retriever
	memory    *ConversationMemory
	generator ports.Generator
	cfg       AskConfig
	logger    *slog.Logger
	observer  AskObserver
}

func NewAskUseCase(
	expander ports.QueryExpander,
	retriever *Retriever,
	memory *ConversationMemory,
	generator ports.Generator,
	cfg AskConfig,
	logger *slog.Logger,
) *AskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		expander:  expander,
		retriever: retriever,
		memory:    memory,
		generator: generator,
		cfg:       cfg.normalize(),
		logger:    logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question, sessionID string) (*domain.AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is required"))
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("session_id is required"))
	}

	subQueries := uc.expandQuestion(ctx, sessionID, question)

	retrieved, err := uc.retriever.Resolve(ctx, sessionID, subQueries)
	if err != nil {
		return nil, fmt.Errorf("resolve context: %w", err)
	}
	if uc.observer != nil {
		uc.observer.ObserveRetrieval(len(subQueries), len(retrieved.References))
	}

	history, err := uc.memory.History(ctx, sessionID, uc.cfg.HistoryTurns)
	if err != nil {
		uc.logger.Warn("history_read_failed", "session_id", sessionID, "error", err)
		history = HistorySentinel
	}

	payload := BuildPrompt(history, retrieved.Texts, retrieved.Images, question)

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerationTimeout)
	defer cancel()
	raw, err := uc.generator.Generate(genCtx, payload.Text, payload.Images)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGenerationUnavailable, "generate answer", err)
	}

	gated, err := ParseGatedAnswer(raw)
	if err != nil {
		uc.logger.Warn("model_response_malformed", "session_id", sessionID, "error", err)
		uc.observeGate("malformed")
		return emptyResult(fallbackAnswer), nil
	}

	if !gated.Relevant() {
		// The gate decided retrieved context was not used: nothing is
		// surfaced and nothing is remembered.
		uc.logger.Info("answer_gated_irrelevant", "session_id", sessionID)
		uc.observeGate("irrelevant")
		return emptyResult(gated.Answer), nil
	}
	uc.observeGate("answered")

	if err := uc.memory.Record(ctx, sessionID, question, gated.Answer); err != nil {
		uc.logger.Warn("memory_write_failed", "session_id", sessionID, "error", err)
		if uc.observer != nil {
			uc.observer.ObserveMemoryWriteFailure()
		}
	}

	return &domain.AskResult{
		Answer:        gated.Answer,
		ContextTexts:  retrieved.Texts,
		ContextImages: retrieved.Images,
	}, nil
}

// SetObserver attaches a metrics observer. Must be called before serving.
func (uc *AskUseCase) SetObserver(observer AskObserver) {
	uc.observer = observer
}

func (uc *AskUseCase) observeGate(status string) {
	if uc.observer != nil {
		uc.observer.ObserveGate(status)
	}
}

func (uc *AskUseCase) expandQuestion(ctx context.Context, sessionID, question string) []string {
	subQueries, err := uc.expander.Expand(ctx, question)
	if err != nil {
		uc.logger.Warn("query_expansion_failed", "session_id", sessionID, "error", err)
		return []string{question}
	}

	cleaned := make([]string, 0, len(subQueries))
	for _, q := range subQueries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return []string{question}
	}
	return cleaned
}

func emptyResult(answer string) *domain.AskResult {
	return &domain.AskResult{
		Answer:        answer,
		ContextTexts:  make([]domain.ContextText, 0),
		ContextImages: make([]string, 0),
	}
}
