package ports

import (
	"context"
	"io"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

// QueryExpander decomposes a question into sub-queries. Implementations must
// return at least one element; the degenerate case is the question itself.
type QueryExpander interface {
	Expand(ctx context.Context, question string) ([]string, error)
}

// SearchClient executes one hybrid lexical+vector query against the index.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// FragmentStore persists fragment metadata and original content, keyed by
// the same identifier space the search index uses.
type FragmentStore interface {
	Upsert(ctx context.Context, fragment domain.Fragment) error
	GetByID(ctx context.Context, id string) (*domain.Fragment, error)
}

// ChatLog is the append-only per-session conversation store.
type ChatLog interface {
	// AppendPair writes one User turn and one Assistant turn atomically,
	// sharing a single timestamp.
	AppendPair(ctx context.Context, sessionID, question, answer string) error
	// ListRecent returns up to limit turns, newest first.
	ListRecent(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error)
}

// Generator invokes the generation model with a textual prompt and zero or
// more base64-encoded image attachments.
type Generator interface {
	Generate(ctx context.Context, prompt string, images []string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Summarizer turns a fragment into a short embeddable summary.
type Summarizer interface {
	Summarize(ctx context.Context, fragment domain.Fragment) (string, error)
}

// Embedder builds vectors for fragment summaries and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores summary vectors keyed by fragment id.
type VectorIndex interface {
	IndexSummaries(ctx context.Context, fragments []domain.Fragment, vectors [][]float32) error
}

// FragmentExtractor produces raw fragments from a stored source document.
type FragmentExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.Fragment, error)
}

// DocumentRepository persists ingestion state of uploaded documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetFragmentCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}
