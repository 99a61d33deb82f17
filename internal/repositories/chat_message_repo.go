package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/google/uuid"
)

type ChatMessageRepository struct {
	db *database.DB
}

func NewChatMessageRepository(db *database.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) Save(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	message.ID = uuid.New().String()
	message.CreatedAt = time.Now()

	query := `
		INSERT INTO chat_messages (id, chat_id, sender_id, sender_role, content, is_human_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		message.ID, message.ChatID, message.SenderID, message.SenderRole,
		message.Content, message.IsHumanRequired, message.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return message, nil
}

// FindAllByChatID returns the full conversation in creation order. The
// triage logic depends on this ordering: both the already-flagged scan and
// the AI context window read history chronologically.
func (r *ChatMessageRepository) FindAllByChatID(ctx context.Context, chatID string) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, chat_id, sender_id, sender_role, content, is_human_required, created_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderRole, &m.Content, &m.IsHumanRequired, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return messages, nil
}

// GetActiveQueues returns one row per conversation — its most recent
// message — newest conversations first. Because the human-required flag is
// sticky at write time, the latest message always carries the conversation's
// current triage status.
func (r *ChatMessageRepository) GetActiveQueues(ctx context.Context) ([]*models.QueueEntry, error) {
	query := `
		SELECT chat_id, content, sender_id, is_human_required, created_at FROM (
			SELECT DISTINCT ON (chat_id) chat_id, content, sender_id, is_human_required, created_at
			FROM chat_messages
			ORDER BY chat_id, created_at DESC
		) latest
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active queues: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.QueueEntry, 0)
	for rows.Next() {
		var e models.QueueEntry
		err := rows.Scan(&e.ChatID, &e.LastMessage, &e.SenderID, &e.IsHumanRequired, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// UpdateAllByChatID bulk-sets the human-required flag across a conversation.
// History is never deleted; resolution only clears the flag.
func (r *ChatMessageRepository) UpdateAllByChatID(ctx context.Context, chatID string, isHumanRequired bool) error {
	query := `UPDATE chat_messages SET is_human_required = $2 WHERE chat_id = $1`

	_, err := r.db.Pool.Exec(ctx, query, chatID, isHumanRequired)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}
