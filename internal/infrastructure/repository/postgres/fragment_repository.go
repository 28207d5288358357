package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

type FragmentRepository struct {
	db *sql.DB
}

func NewFragmentRepository(db *sql.DB) *FragmentRepository {
	return &FragmentRepository{db: db}
}

func (r *FragmentRepository) Upsert(ctx context.Context, fragment domain.Fragment) error {
	if fragment.CreatedAt.IsZero() {
		fragment.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO fragments (id, document_id, kind, page_number, content, summary, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE
SET document_id = EXCLUDED.document_id,
	kind = EXCLUDED.kind,
	page_number = EXCLUDED.page_number,
	content = EXCLUDED.content,
	summary = EXCLUDED.summary
`, fragment.ID, fragment.DocumentID, string(fragment.Kind), fragment.PageNumber, fragment.Content, fragment.Summary, fragment.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert fragment: %w", err)
	}
	return nil
}

func (r *FragmentRepository) GetByID(ctx context.Context, id string) (*domain.Fragment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, kind, page_number, content, summary, created_at
FROM fragments
WHERE id = $1
`, id)

	var fragment domain.Fragment
	var kind string
	err := row.Scan(
		&fragment.ID, &fragment.DocumentID, &kind, &fragment.PageNumber,
		&fragment.Content, &fragment.Summary, &fragment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFragmentNotFound, "get fragment", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan fragment: %w", err)
	}
	fragment.Kind = domain.FragmentKind(kind)
	return &fragment, nil
}
