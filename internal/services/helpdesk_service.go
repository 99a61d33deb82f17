package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gatherly/gatherly/internal/ai"
	"github.com/gatherly/gatherly/internal/models"
)

// ChatMessageRepository defines the interface for chat message persistence
type ChatMessageRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
	FindAllByChatID(ctx context.Context, chatID string) ([]*models.ChatMessage, error)
	GetActiveQueues(ctx context.Context) ([]*models.QueueEntry, error)
	UpdateAllByChatID(ctx context.Context, chatID string, isHumanRequired bool) error
}

// transferKeywords route a conversation to the human queue when any of them
// appears (case-insensitively) in an inbound message.
var transferKeywords = []string{
	"human",
	"person",
	"agent",
	"support",
	"talk to somebody",
	"representative",
}

const transferAcknowledgment = "I've flagged this conversation for a human agent. They will get back to you shortly."

// SendMessageResult carries the persisted user message plus the reply, if
// one was produced. AIReply is nil when the conversation is already in the
// human queue and the message did not newly request a transfer.
type SendMessageResult struct {
	UserMessage *models.ChatMessage `json:"userMessage"`
	AIReply     *models.ChatMessage `json:"aiReply,omitempty"`
}

// HelpDeskService routes inbound chat messages between the AI responder and
// the human agent queue.
type HelpDeskService struct {
	chatRepo  ChatMessageRepository
	responder ai.Responder
	logger    *slog.Logger
}

// NewHelpDeskService creates a new HelpDeskService
func NewHelpDeskService(chatRepo ChatMessageRepository, responder ai.Responder, logger *slog.Logger) *HelpDeskService {
	return &HelpDeskService{
		chatRepo:  chatRepo,
		responder: responder,
		logger:    logger,
	}
}

// SendMessage runs the triage decision for one inbound user message. The
// human-required flag is sticky: once any message in the conversation
// carries it, every later message is persisted flagged until ResolveChat.
func (s *HelpDeskService) SendMessage(ctx context.Context, userID, content string) (*SendMessageResult, error) {
	history, err := s.chatRepo.FindAllByChatID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load chat history", slog.String("chat_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	alreadyFlagged := false
	for _, m := range history {
		if m.IsHumanRequired {
			alreadyFlagged = true
			break
		}
	}

	requestsHuman := containsTransferKeyword(content)
	needsHuman := alreadyFlagged || requestsHuman

	userMessage, err := s.chatRepo.Save(ctx, &models.ChatMessage{
		ChatID:          userID,
		SenderID:        userID,
		SenderRole:      models.SenderRoleUser,
		Content:         content,
		IsHumanRequired: needsHuman,
	})
	if err != nil {
		s.logger.Error("failed to save user message", slog.String("chat_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	result := &SendMessageResult{UserMessage: userMessage}

	switch {
	case !needsHuman:
		aiResponse, err := s.responder.GenerateResponse(ctx, ai.ChatRequest{
			Query:   content,
			History: mapHistory(history),
		})
		if err != nil {
			// The adapter already logged the cause; only the generic
			// unavailable condition travels further.
			return nil, models.ErrServiceUnavailable
		}

		aiMessage, err := s.chatRepo.Save(ctx, &models.ChatMessage{
			ChatID:          userID,
			SenderID:        models.AIBotSenderID,
			SenderRole:      models.SenderRoleAgent,
			Content:         aiResponse.Text,
			IsHumanRequired: false,
		})
		if err != nil {
			s.logger.Error("failed to save AI reply", slog.String("chat_id", userID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		result.AIReply = aiMessage

	case requestsHuman && !alreadyFlagged:
		// First transfer request in this conversation: acknowledge once.
		ackMessage, err := s.chatRepo.Save(ctx, &models.ChatMessage{
			ChatID:          userID,
			SenderID:        models.AIBotSenderID,
			SenderRole:      models.SenderRoleAgent,
			Content:         transferAcknowledgment,
			IsHumanRequired: true,
		})
		if err != nil {
			s.logger.Error("failed to save transfer acknowledgment", slog.String("chat_id", userID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		result.AIReply = ackMessage

	default:
		// Already in the human queue: the agent replies, not the bot.
	}

	return result, nil
}

// ResolveChat clears the human-required flag across a conversation,
// returning it to AI handling. History is retained.
func (s *HelpDeskService) ResolveChat(ctx context.Context, chatID string) error {
	if err := s.chatRepo.UpdateAllByChatID(ctx, chatID, false); err != nil {
		s.logger.Error("failed to resolve chat", slog.String("chat_id", chatID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// GetQueue returns the agent-facing triage queue: the latest message of
// every conversation, newest first.
func (s *HelpDeskService) GetQueue(ctx context.Context) ([]*models.QueueEntry, error) {
	entries, err := s.chatRepo.GetActiveQueues(ctx)
	if err != nil {
		s.logger.Error("failed to load triage queue", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// ReplyToUser records a human agent's reply into the user's conversation.
func (s *HelpDeskService) ReplyToUser(ctx context.Context, agentID, userID, content string) (*models.ChatMessage, error) {
	message, err := s.chatRepo.Save(ctx, &models.ChatMessage{
		ChatID:          userID,
		SenderID:        agentID,
		SenderRole:      models.SenderRoleAgent,
		Content:         content,
		IsHumanRequired: false,
	})
	if err != nil {
		s.logger.Error("failed to save agent reply", slog.String("chat_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return message, nil
}

// GetHistory returns a conversation in creation order.
func (s *HelpDeskService) GetHistory(ctx context.Context, chatID string) ([]*models.ChatMessage, error) {
	history, err := s.chatRepo.FindAllByChatID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load chat history", slog.String("chat_id", chatID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return history, nil
}

func containsTransferKeyword(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range transferKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func mapHistory(history []*models.ChatMessage) []ai.HistoryTurn {
	turns := make([]ai.HistoryTurn, 0, len(history))
	for _, m := range history {
		role := ai.HistoryRoleModel
		if m.SenderRole == models.SenderRoleUser {
			role = ai.HistoryRoleUser
		}
		turns = append(turns, ai.HistoryTurn{Role: role, Content: m.Content})
	}
	return turns
}
