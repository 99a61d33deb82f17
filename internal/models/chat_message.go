package models

import "time"

// Sender roles on a chat message
const (
	SenderRoleUser  = "USER"
	SenderRoleAgent = "AGENT"
)

// AIBotSenderID is the synthetic sender recorded on AI-generated replies.
const AIBotSenderID = "AI_BOT"

// ChatMessage is one entry in a help-desk conversation. The conversation key
// (ChatID) is the originating user's id; there is no separate chat aggregate.
// Messages are immutable once created except for the bulk IsHumanRequired
// clear performed when a chat is resolved.
type ChatMessage struct {
	ID              string    `json:"id"`
	ChatID          string    `json:"chat_id"`
	SenderID        string    `json:"sender_id"`
	SenderRole      string    `json:"sender_role"`
	Content         string    `json:"content"`
	IsHumanRequired bool      `json:"is_human_required"`
	CreatedAt       time.Time `json:"created_at"`
}

// QueueEntry is one row of the agent-facing triage queue: the most recent
// message of a conversation plus its sticky human-required flag.
type QueueEntry struct {
	ChatID          string    `json:"chat_id"`
	LastMessage     string    `json:"last_message"`
	SenderID        string    `json:"sender_id"`
	IsHumanRequired bool      `json:"is_human_required"`
	CreatedAt       time.Time `json:"created_at"`
}
