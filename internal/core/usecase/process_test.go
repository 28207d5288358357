package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

type scriptedExtractor struct {
	fragments []domain.Fragment
	err       error
}

func (e *scriptedExtractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Fragment, error) {
	return e.fragments, e.err
}

type prefixSummarizer struct {
	err error
}

func (s *prefixSummarizer) Summarize(ctx context.Context, fragment domain.Fragment) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "summary of " + fragment.ID, nil
}

type countingEmbedder struct {
	gotTexts []string
	short    bool
	err      error
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.gotTexts = texts
	n := len(texts)
	if e.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0}, nil
}

type recordingIndex struct {
	indexed []domain.Fragment
	err     error
	store   *mapFragmentStore
	// snapshot of how many fragments the store held when indexing ran
	upsertsAtIndexTime int
}

func (idx *recordingIndex) IndexSummaries(ctx context.Context, fragments []domain.Fragment, vectors [][]float32) error {
	if idx.err != nil {
		return idx.err
	}
	idx.indexed = fragments
	if idx.store != nil {
		idx.upsertsAtIndexTime = len(idx.store.fragments)
	}
	return nil
}

func processFixtureRepo() *recordingDocRepo {
	return &recordingDocRepo{docs: map[string]*domain.Document{
		"doc-1": {ID: "doc-1", Filename: "a.pdf", StoragePath: "doc-1_a.pdf", Status: domain.StatusUploaded},
	}}
}

func TestProcessByIDHappyPath(t *testing.T) {
	repo := processFixtureRepo()
	store := &mapFragmentStore{fragments: map[string]domain.Fragment{}}
	index := &recordingIndex{store: store}
	embedder := &countingEmbedder{}
	uc := NewProcessUseCase(repo, &scriptedExtractor{fragments: []domain.Fragment{
		textFragment("f1", 1),
		textFragment("f2", 2),
	}}, &prefixSummarizer{}, embedder, index, store)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID: %v", err)
	}

	wantStatuses := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != wantStatuses[0] || repo.statuses[1] != wantStatuses[1] {
		t.Fatalf("status transitions = %v, want %v", repo.statuses, wantStatuses)
	}
	if len(repo.counts) != 1 || repo.counts[0] != 2 {
		t.Fatalf("fragment counts = %v, want [2]", repo.counts)
	}
	if len(embedder.gotTexts) != 2 || embedder.gotTexts[0] != "summary of f1" {
		t.Fatalf("embedded texts = %v", embedder.gotTexts)
	}
	if len(index.indexed) != 2 || index.indexed[0].Summary != "summary of f1" {
		t.Fatalf("indexed fragments = %+v", index.indexed)
	}
	if stored, err := store.GetByID(context.Background(), "f2"); err != nil || stored.Summary != "summary of f2" {
		t.Fatalf("stored fragment = %+v, err %v", stored, err)
	}
	if index.upsertsAtIndexTime != 2 {
		t.Fatalf("only %d fragments persisted before indexing", index.upsertsAtIndexTime)
	}
}

func TestProcessByIDMarksFailedOnPipelineError(t *testing.T) {
	repo := processFixtureRepo()
	wantErr := errors.New("model offline")
	store := &mapFragmentStore{}
	uc := NewProcessUseCase(repo, &scriptedExtractor{fragments: []domain.Fragment{textFragment("f1", 1)}},
		&prefixSummarizer{err: wantErr}, &countingEmbedder{}, &recordingIndex{}, store)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if len(repo.statuses) != 2 || repo.statuses[1] != domain.StatusFailed {
		t.Fatalf("status transitions = %v, want failed terminal", repo.statuses)
	}
	if repo.errMsgs[1] == "" {
		t.Fatal("failed status recorded without an error message")
	}
	if len(repo.counts) != 0 {
		t.Fatalf("fragment count set on failure: %v", repo.counts)
	}
}

func TestProcessByIDRejectsZeroFragments(t *testing.T) {
	repo := processFixtureRepo()
	uc := NewProcessUseCase(repo, &scriptedExtractor{}, &prefixSummarizer{}, &countingEmbedder{},
		&recordingIndex{}, &mapFragmentStore{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("status transitions = %v", repo.statuses)
	}
}

func TestProcessByIDRejectsVectorCountMismatch(t *testing.T) {
	repo := processFixtureRepo()
	uc := NewProcessUseCase(repo, &scriptedExtractor{fragments: []domain.Fragment{
		textFragment("f1", 1),
		textFragment("f2", 2),
	}}, &prefixSummarizer{}, &countingEmbedder{short: true}, &recordingIndex{}, &mapFragmentStore{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessByIDFailsWhenDocumentMissing(t *testing.T) {
	repo := &recordingDocRepo{}
	uc := NewProcessUseCase(repo, &scriptedExtractor{}, &prefixSummarizer{}, &countingEmbedder{},
		&recordingIndex{}, &mapFragmentStore{})

	err := uc.ProcessByID(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
