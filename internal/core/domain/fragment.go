package domain

import "time"

// FragmentKind is assigned once when a fragment is produced by extraction
// and is never re-derived by inspecting content downstream.
type FragmentKind string

const (
	KindText  FragmentKind = "text"
	KindTable FragmentKind = "table"
	KindImage FragmentKind = "image"
)

// Fragment is one extracted piece of a source document: a page-sized run of
// text, a table, or a base64-encoded image. Content holds raw text for text
// and table fragments and the base64 blob for image fragments.
type Fragment struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	Kind       FragmentKind `json:"kind"`
	PageNumber int          `json:"page_number"`
	Content    string       `json:"content"`
	Summary    string       `json:"summary,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (f Fragment) IsImage() bool {
	return f.Kind == KindImage
}

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document tracks one uploaded source file through the ingestion pipeline.
type Document struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	StoragePath   string         `json:"storage_path"`
	Status        DocumentStatus `json:"status"`
	FragmentCount int            `json:"fragment_count,omitempty"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
