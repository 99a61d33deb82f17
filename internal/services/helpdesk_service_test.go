package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gatherly/gatherly/internal/ai"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHelpDesk(chatRepo ChatMessageRepository, responder ai.Responder) *HelpDeskService {
	return NewHelpDeskService(chatRepo, responder, slog.Default())
}

func TestHelpDesk_SendMessage_AIReplyWhenNoEscalation(t *testing.T) {
	chatRepo := &MockChatMessageRepository{}
	responder := &MockResponder{
		GenerateResponseFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Text: "Here is how to create an event."}, nil
		},
	}

	svc := newTestHelpDesk(chatRepo, responder)

	result, err := svc.SendMessage(context.Background(), "user123", "How do I create an event?")

	require.NoError(t, err)
	assert.False(t, result.UserMessage.IsHumanRequired)
	require.NotNil(t, result.AIReply)
	assert.Equal(t, "Here is how to create an event.", result.AIReply.Content)
	assert.Equal(t, models.AIBotSenderID, result.AIReply.SenderID)
	assert.Equal(t, models.SenderRoleAgent, result.AIReply.SenderRole)
	assert.False(t, result.AIReply.IsHumanRequired)
	require.Len(t, responder.Calls, 1)
	assert.Equal(t, "How do I create an event?", responder.Calls[0].Query)
}

func TestHelpDesk_SendMessage_HistoryMappedToTurns(t *testing.T) {
	chatRepo := &MockChatMessageRepository{
		History: []*models.ChatMessage{
			{ChatID: "user123", SenderRole: models.SenderRoleUser, Content: "earlier question"},
			{ChatID: "user123", SenderRole: models.SenderRoleAgent, Content: "earlier answer"},
		},
	}
	responder := &MockResponder{}

	svc := newTestHelpDesk(chatRepo, responder)

	_, err := svc.SendMessage(context.Background(), "user123", "follow-up")

	require.NoError(t, err)
	require.Len(t, responder.Calls, 1)
	require.Len(t, responder.Calls[0].History, 2)
	assert.Equal(t, ai.HistoryTurn{Role: ai.HistoryRoleUser, Content: "earlier question"}, responder.Calls[0].History[0])
	assert.Equal(t, ai.HistoryTurn{Role: ai.HistoryRoleModel, Content: "earlier answer"}, responder.Calls[0].History[1])
}

func TestHelpDesk_SendMessage_TransferKeywordsEscalate(t *testing.T) {
	keywordMessages := []string{
		"I need a human",
		"let me talk to a PERSON",
		"get me an agent",
		"contact support please",
		"can I talk to somebody",
		"I want a representative",
	}

	for _, content := range keywordMessages {
		chatRepo := &MockChatMessageRepository{}
		responder := &MockResponder{}
		svc := newTestHelpDesk(chatRepo, responder)

		result, err := svc.SendMessage(context.Background(), "user123", content)

		require.NoError(t, err, content)
		assert.True(t, result.UserMessage.IsHumanRequired, content)
		require.NotNil(t, result.AIReply, content)
		assert.Contains(t, result.AIReply.Content, "flagged this conversation for a human agent", content)
		assert.True(t, result.AIReply.IsHumanRequired, content)
		assert.Empty(t, responder.Calls, "no AI call once a human is requested")
	}
}

func TestHelpDesk_SendMessage_StickyFlagAndSingleAcknowledgment(t *testing.T) {
	chatRepo := &MockChatMessageRepository{}
	responder := &MockResponder{}
	svc := newTestHelpDesk(chatRepo, responder)

	// First message requests a human: acknowledged exactly once.
	first, err := svc.SendMessage(context.Background(), "user123", "I need a human")
	require.NoError(t, err)
	require.NotNil(t, first.AIReply)
	assert.True(t, first.UserMessage.IsHumanRequired)

	// Harmless follow-up stays flagged and gets no reply at all.
	second, err := svc.SendMessage(context.Background(), "user123", "thanks")
	require.NoError(t, err)
	assert.True(t, second.UserMessage.IsHumanRequired)
	assert.Nil(t, second.AIReply)

	// Even repeating the keyword does not re-acknowledge.
	third, err := svc.SendMessage(context.Background(), "user123", "hello human")
	require.NoError(t, err)
	assert.True(t, third.UserMessage.IsHumanRequired)
	assert.Nil(t, third.AIReply)

	assert.Empty(t, responder.Calls)
}

func TestHelpDesk_ResolveChat_ReturnsConversationToAI(t *testing.T) {
	chatRepo := &MockChatMessageRepository{}
	responder := &MockResponder{}
	svc := newTestHelpDesk(chatRepo, responder)

	_, err := svc.SendMessage(context.Background(), "user123", "I need a human")
	require.NoError(t, err)

	require.NoError(t, svc.ResolveChat(context.Background(), "user123"))
	assert.Equal(t, []string{"user123"}, chatRepo.Resolved)

	for _, m := range chatRepo.History {
		assert.False(t, m.IsHumanRequired, "resolution clears every message in the chat")
	}

	// With the flag cleared, the next message goes back to the AI.
	result, err := svc.SendMessage(context.Background(), "user123", "one more question")
	require.NoError(t, err)
	assert.False(t, result.UserMessage.IsHumanRequired)
	require.NotNil(t, result.AIReply)
	require.Len(t, responder.Calls, 1)
}

func TestHelpDesk_SendMessage_AIFailureSurfacesGenericUnavailable(t *testing.T) {
	chatRepo := &MockChatMessageRepository{}
	responder := &MockResponder{
		GenerateResponseFunc: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, models.ErrServiceUnavailable
		},
	}

	svc := newTestHelpDesk(chatRepo, responder)

	result, err := svc.SendMessage(context.Background(), "user123", "why is the sky blue")

	assert.True(t, errors.Is(err, models.ErrServiceUnavailable))
	assert.Nil(t, result)

	// The user's message was persisted before the adapter failed.
	require.Len(t, chatRepo.Saved, 1)
	assert.Equal(t, models.SenderRoleUser, chatRepo.Saved[0].SenderRole)
}

func TestHelpDesk_GetQueue(t *testing.T) {
	chatRepo := &MockChatMessageRepository{
		Queues: []*models.QueueEntry{
			{ChatID: "user1", LastMessage: "thanks", IsHumanRequired: true},
			{ChatID: "user2", LastMessage: "hello", IsHumanRequired: false},
		},
	}

	svc := newTestHelpDesk(chatRepo, &MockResponder{})

	queue, err := svc.GetQueue(context.Background())

	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.True(t, queue[0].IsHumanRequired)
}

func TestHelpDesk_ReplyToUser_RecordsAgentMessage(t *testing.T) {
	chatRepo := &MockChatMessageRepository{}
	svc := newTestHelpDesk(chatRepo, &MockResponder{})

	message, err := svc.ReplyToUser(context.Background(), "agent42", "user123", "An agent here, how can I help?")

	require.NoError(t, err)
	assert.Equal(t, "user123", message.ChatID)
	assert.Equal(t, "agent42", message.SenderID)
	assert.Equal(t, models.SenderRoleAgent, message.SenderRole)
	assert.False(t, message.IsHumanRequired)
}
