package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

const (
	defaultMaxFragmentRunes = 2000
	defaultOverlapRunes     = 200
)

// Extractor turns a stored PDF into page-tagged fragments. Each page yields
// one or more text or table fragments; images uploaded alongside the
// document arrive via its storage sidecar.
type Extractor struct {
	storage          ports.ObjectStorage
	maxFragmentRunes int
	overlapRunes     int
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{
		storage:          storage,
		maxFragmentRunes: defaultMaxFragmentRunes,
		overlapRunes:     defaultOverlapRunes,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Fragment, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", doc.Filename, err)
	}

	now := time.Now().UTC()
	fragments := make([]domain.Fragment, 0, pdfReader.NumPage())
	for pageNo := 1; pageNo <= pdfReader.NumPage(); pageNo++ {
		page := pdfReader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with exotic encodings are skipped, not fatal.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		kind := domain.KindText
		if looksLikeTable(text) {
			kind = domain.KindTable
		}
		for _, piece := range e.splitLongText(text) {
			fragments = append(fragments, domain.Fragment{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				Kind:       kind,
				PageNumber: pageNo,
				Content:    piece,
				CreatedAt:  now,
			})
		}
	}

	images, err := e.loadSidecarImages(ctx, doc)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		fragments = append(fragments, domain.Fragment{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Kind:       domain.KindImage,
			Content:    img,
			CreatedAt:  now,
		})
	}

	return fragments, nil
}

// splitLongText breaks oversized page text into overlapping rune windows so
// every fragment stays within summarizer input limits.
func (e *Extractor) splitLongText(text string) []string {
	runes := []rune(text)
	if len(runes) <= e.maxFragmentRunes {
		return []string{text}
	}

	step := e.maxFragmentRunes - e.overlapRunes
	if step <= 0 {
		step = e.maxFragmentRunes
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + e.maxFragmentRunes
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
