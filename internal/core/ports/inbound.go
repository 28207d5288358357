package ports

import (
	"context"
	"io"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for one question-answering turn.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question, sessionID string) (*domain.AskResult, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader, images []string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous fragment processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document ingestion state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
