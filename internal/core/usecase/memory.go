package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/okomarov/mrag-assistant/internal/core/ports"
)

// HistorySentinel is returned when a session has no prior turns, so callers
// never have to distinguish an empty history string from a missing one.
const HistorySentinel = "no prior conversation"

// ConversationMemory renders per-session history and appends completed turn
// pairs. The store returns turns newest-first; rendering reverses them into
// chronological order at this boundary.
type ConversationMemory struct {
	chat   ports.ChatLog
	logger *slog.Logger
}

func NewConversationMemory(chat ports.ChatLog, logger *slog.Logger) *ConversationMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationMemory{chat: chat, logger: logger}
}

// History returns up to limit most recent turn pairs rendered as
// "<Role>: <message>" lines, oldest first.
func (m *ConversationMemory) History(ctx context.Context, sessionID string, limit int) (string, error) {
	if limit <= 0 {
		return HistorySentinel, nil
	}

	turns, err := m.chat.ListRecent(ctx, sessionID, 2*limit)
	if err != nil {
		return "", fmt.Errorf("list recent turns: %w", err)
	}
	if len(turns) == 0 {
		return HistorySentinel, nil
	}

	// Newest-first from the store; reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Message))
	}
	return strings.Join(lines, "\n"), nil
}

// Record appends exactly one User/Assistant pair for the completed turn.
// Only called for relevant (status=1) answers.
func (m *ConversationMemory) Record(ctx context.Context, sessionID, question, answer string) error {
	if err := m.chat.AppendPair(ctx, sessionID, question, answer); err != nil {
		return fmt.Errorf("append turn pair: %w", err)
	}
	return nil
}
