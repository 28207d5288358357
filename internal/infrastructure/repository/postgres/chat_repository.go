package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// AppendPair writes the question and answer turns in one transaction with a
// shared timestamp, so a history read never observes a question without its
// answer and the pair sorts as a unit.
func (r *ChatRepository) AppendPair(ctx context.Context, sessionID, question, answer string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	const insert = `
INSERT INTO chat_turns (id, session_id, role, message, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), sessionID, string(domain.RoleUser), question, now); err != nil {
		return fmt.Errorf("insert user turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), sessionID, string(domain.RoleAssistant), answer, now); err != nil {
		return fmt.Errorf("insert assistant turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chat tx: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	// Pairs share a timestamp; role ASC puts the Assistant turn before its
	// User turn in newest-first order, so a chronological reversal keeps
	// question before answer.
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, role, message, created_at
FROM chat_turns
WHERE session_id = $1
ORDER BY created_at DESC, role ASC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatTurn, 0, limit)
	for rows.Next() {
		var turn domain.ChatTurn
		var role string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &role, &turn.Message, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turn.Role = domain.ChatRole(role)
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}
	return out, nil
}
