package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// ImageSidecarSuffix names the object-storage key holding the base64 images
// attached to an upload, next to the source file itself.
const ImageSidecarSuffix = ".images.json"

type IngestUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestUseCase {
	return &IngestUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the source document (plus any attached page images) and
// queues it for fragment processing.
func (uc *IngestUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
	images []string,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	if len(images) > 0 {
		sidecar, err := json.Marshal(images)
		if err != nil {
			return nil, fmt.Errorf("marshal image sidecar: %w", err)
		}
		if err := uc.storage.Save(ctx, storageKey+ImageSidecarSuffix, bytes.NewReader(sidecar)); err != nil {
			return nil, fmt.Errorf("save image sidecar: %w", err)
		}
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
