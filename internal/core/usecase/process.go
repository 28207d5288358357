package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// ProcessUseCase turns an uploaded document into indexed fragments: extract,
// summarize, embed the summaries, index them for hybrid search, and persist
// fragment content for later reference resolution.
type ProcessUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.FragmentExtractor
	summarizer ports.Summarizer
	embedder   ports.Embedder
	index      ports.VectorIndex
	fragments  ports.FragmentStore
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	extractor ports.FragmentExtractor,
	summarizer ports.Summarizer,
	embedder ports.Embedder,
	index ports.VectorIndex,
	fragments ports.FragmentStore,
) *ProcessUseCase {
	return &ProcessUseCase{
		repo:       repo,
		extractor:  extractor,
		summarizer: summarizer,
		embedder:   embedder,
		index:      index,
		fragments:  fragments,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetFragmentCount(ctx, documentID, count); err != nil {
		return fmt.Errorf("set fragment count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	fragments, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract fragments: %w", err)
	}
	if len(fragments) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract fragments", errors.New("document produced zero fragments"))
	}

	for i := range fragments {
		summary, err := uc.summarizer.Summarize(ctx, fragments[i])
		if err != nil {
			return 0, fmt.Errorf("summarize fragment %s: %w", fragments[i].ID, err)
		}
		fragments[i].Summary = summary
	}

	summaries := make([]string, len(fragments))
	for i, f := range fragments {
		summaries[i] = f.Summary
	}
	vectors, err := uc.embedder.Embed(ctx, summaries)
	if err != nil {
		return 0, fmt.Errorf("embed summaries: %w", err)
	}
	if len(vectors) != len(fragments) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed summaries",
			fmt.Errorf("vectors/fragments mismatch: %d/%d", len(vectors), len(fragments)),
		)
	}

	// Content first: a searchable summary whose fragment cannot be resolved
	// would surface as a dropped reference on every hit.
	for _, fragment := range fragments {
		if err := uc.fragments.Upsert(ctx, fragment); err != nil {
			return 0, fmt.Errorf("upsert fragment %s: %w", fragment.ID, err)
		}
	}

	if err := uc.index.IndexSummaries(ctx, fragments, vectors); err != nil {
		return 0, fmt.Errorf("index summaries: %w", err)
	}

	return len(fragments), nil
}
