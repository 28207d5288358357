package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// DedupStrategy decides which hit survives when two sub-queries return the
// same fragment.
type DedupStrategy string

const (
	// DedupFirstSeen keeps the hit from the earliest sub-query in submission
	// order. Deterministic regardless of completion order.
	DedupFirstSeen DedupStrategy = "first"
	// DedupBestScore keeps the highest-scoring hit for the fragment.
	DedupBestScore DedupStrategy = "best"
)

type RetrievalConfig struct {
	// SearchLimit is the per-sub-query result limit handed to the search client.
	SearchLimit int
	// ScoreThreshold drops merged hits scoring below it.
	ScoreThreshold float64
	// RankingLimit bounds the final reference set.
	RankingLimit int
	Dedup        DedupStrategy
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.SearchLimit <= 0 {
		out.SearchLimit = 6
	}
	if out.RankingLimit <= 0 {
		out.RankingLimit = 6
	}
	if out.Dedup != DedupBestScore {
		out.Dedup = DedupFirstSeen
	}
	return out
}

// Retriever fans sub-queries out against the search index, merges and ranks
// the hits, and reconciles the survivors against the fragment store. It keeps
// no state across runs.
type Retriever struct {
	search    ports.SearchClient
	fragments ports.FragmentStore
	cfg       RetrievalConfig
	logger    *slog.Logger
}

func NewRetriever(
	search ports.SearchClient,
	fragments ports.FragmentStore,
	cfg RetrievalConfig,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		search:    search,
		fragments: fragments,
		cfg:       cfg.normalize(),
		logger:    logger,
	}
}

func (r *Retriever) Resolve(ctx context.Context, sessionID string, subQueries []string) (*domain.RetrievedContext, error) {
	if len(subQueries) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve context", fmt.Errorf("no sub-queries"))
	}
	for i, q := range subQueries {
		if strings.TrimSpace(q) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "resolve context", fmt.Errorf("blank sub-query at %d", i))
		}
	}

	batches := r.fanOut(ctx, sessionID, subQueries)
	ranked := r.mergeAndRank(batches)
	refs := r.resolveFragments(ctx, sessionID, ranked)

	out := &domain.RetrievedContext{
		References: refs,
		Texts:      make([]domain.ContextText, 0, len(refs)),
		Images:     make([]string, 0),
	}
	for _, ref := range refs {
		if ref.Kind == domain.KindImage {
			out.Images = append(out.Images, ref.Content)
			continue
		}
		out.Texts = append(out.Texts, domain.ContextText{
			PageNumber: ref.PageNumber,
			Text:       ref.Content,
			Score:      ref.Score,
		})
	}

	r.logger.Info("retrieval_complete",
		"session_id", sessionID,
		"sub_queries", len(subQueries),
		"references", len(refs),
		"texts", len(out.Texts),
		"images", len(out.Images),
	)
	return out, nil
}

// fanOut runs one search per sub-query concurrently. Batches come back in
// submission order; a failed search contributes an empty batch and never
// aborts the run.
func (r *Retriever) fanOut(ctx context.Context, sessionID string, subQueries []string) [][]domain.SearchHit {
	batches := make([][]domain.SearchHit, len(subQueries))

	g, gctx := errgroup.WithContext(ctx)
	for i, query := range subQueries {
		i, query := i, query
		g.Go(func() error {
			hits, err := r.search.Search(gctx, query, r.cfg.SearchLimit)
			if err != nil {
				r.logger.Warn("sub_query_search_failed",
					"session_id", sessionID,
					"sub_query", query,
					"error", err,
				)
				return nil
			}
			batches[i] = hits
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// mergeAndRank deduplicates by fragment id, applies the score threshold, and
// sorts descending by score with identifier order breaking ties.
func (r *Retriever) mergeAndRank(batches [][]domain.SearchHit) []domain.SearchHit {
	merged := make(map[string]domain.SearchHit)
	order := make([]string, 0)

	for _, batch := range batches {
		for _, hit := range batch {
			if hit.FragmentID == "" {
				continue
			}
			seen, ok := merged[hit.FragmentID]
			if !ok {
				merged[hit.FragmentID] = hit
				order = append(order, hit.FragmentID)
				continue
			}
			if r.cfg.Dedup == DedupBestScore && hit.Score > seen.Score {
				merged[hit.FragmentID] = hit
			}
		}
	}

	survivors := make([]domain.SearchHit, 0, len(order))
	for _, id := range order {
		hit := merged[id]
		if hit.Score < r.cfg.ScoreThreshold {
			continue
		}
		survivors = append(survivors, hit)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Score != survivors[j].Score {
			return survivors[i].Score > survivors[j].Score
		}
		return survivors[i].FragmentID < survivors[j].FragmentID
	})

	if len(survivors) > r.cfg.RankingLimit {
		survivors = survivors[:r.cfg.RankingLimit]
	}
	return survivors
}

// resolveFragments looks up the stored fragment for each ranked hit. Lookups
// run in parallel: identifiers are already unique, all reads. A failed lookup
// drops that single reference.
func (r *Retriever) resolveFragments(ctx context.Context, sessionID string, ranked []domain.SearchHit) []domain.Reference {
	resolved := make([]*domain.Fragment, len(ranked))

	g, gctx := errgroup.WithContext(ctx)
	for i, hit := range ranked {
		i, hit := i, hit
		g.Go(func() error {
			fragment, err := r.fragments.GetByID(gctx, hit.FragmentID)
			if err != nil {
				r.logger.Warn("reference_resolution_failed",
					"session_id", sessionID,
					"fragment_id", hit.FragmentID,
					"error", err,
				)
				return nil
			}
			resolved[i] = fragment
			return nil
		})
	}
	_ = g.Wait()

	refs := make([]domain.Reference, 0, len(ranked))
	for i, hit := range ranked {
		fragment := resolved[i]
		if fragment == nil {
			continue
		}
		refs = append(refs, domain.Reference{
			FragmentID: hit.FragmentID,
			Snippet:    hit.Snippet,
			Score:      hit.Score,
			Kind:       fragment.Kind,
			PageNumber: fragment.PageNumber,
			Content:    fragment.Content,
		})
	}
	return refs
}
