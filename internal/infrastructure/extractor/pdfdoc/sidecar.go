package pdfdoc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
	"github.com/okomarov/mrag-assistant/internal/core/usecase"
)

// loadSidecarImages reads the base64 images stored next to the source
// document at upload time. A missing sidecar means the upload carried no
// images.
func (e *Extractor) loadSidecarImages(ctx context.Context, doc *domain.Document) ([]string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath+usecase.ImageSidecarSuffix)
	if err != nil {
		return nil, nil
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image sidecar: %w", err)
	}

	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("decode image sidecar: %w", err)
	}

	kept := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" || isBlankImage(img) {
			continue
		}
		kept = append(kept, img)
	}
	return kept, nil
}

// isBlankImage drops undecodable payloads and single-color scans: pages that
// carry no signal would only pollute the image context later.
func isBlankImage(encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return true
	}
	img, _, err := image.Decode(strings.NewReader(string(raw)))
	if err != nil {
		return true
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return true
	}

	// Sample a coarse grid; a blank scan is uniform everywhere.
	const grid = 8
	stepX := bounds.Dx()/grid + 1
	stepY := bounds.Dy()/grid + 1
	r0, g0, b0, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != r0 || g != g0 || b != b0 {
				return false
			}
		}
	}
	return true
}
