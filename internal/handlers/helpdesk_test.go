package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatherly/gatherly/internal/handlers"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
)

func TestSendMessage_AIReply(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		SendMessageFunc: func(ctx context.Context, userID, content string) (*services.SendMessageResult, error) {
			assert.Equal(t, "user123", userID)
			assert.Equal(t, "When does the venue open?", content)
			return &services.SendMessageResult{
				UserMessage: &models.ChatMessage{ChatID: userID, SenderID: userID, Content: content},
				AIReply:     &models.ChatMessage{ChatID: userID, SenderID: models.AIBotSenderID, Content: "Doors open at 9am."},
			}, nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/messages", handlers.SendMessageRequest{
		Content: "When does the venue open?",
	})
	req = handlers.WithAuthContext(req, "user123", models.RoleUser)

	w := httptest.NewRecorder()
	handler.SendMessage(w, req)

	var resp services.SendMessageResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, models.AIBotSenderID, resp.AIReply.SenderID)
}

func TestSendMessage_QueuedConversationHasNoReply(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		SendMessageFunc: func(ctx context.Context, userID, content string) (*services.SendMessageResult, error) {
			return &services.SendMessageResult{
				UserMessage: &models.ChatMessage{ChatID: userID, Content: content, IsHumanRequired: true},
			}, nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/messages", handlers.SendMessageRequest{
		Content: "any update?",
	})
	req = handlers.WithAuthContext(req, "user123", models.RoleUser)

	w := httptest.NewRecorder()
	handler.SendMessage(w, req)

	var resp services.SendMessageResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Nil(t, resp.AIReply)
	assert.True(t, resp.UserMessage.IsHumanRequired)
}

func TestSendMessage_AIUnavailable(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		SendMessageFunc: func(ctx context.Context, userID, content string) (*services.SendMessageResult, error) {
			return nil, models.ErrServiceUnavailable
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/messages", handlers.SendMessageRequest{
		Content: "hello",
	})
	req = handlers.WithAuthContext(req, "user123", models.RoleUser)

	w := httptest.NewRecorder()
	handler.SendMessage(w, req)

	handlers.AssertErrorResponse(t, w, 503, "service_unavailable")
}

func TestSendMessage_RequiresAuth(t *testing.T) {
	handler := handlers.NewHelpDeskHandler(&handlers.MockHelpDeskService{})
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/messages", handlers.SendMessageRequest{
		Content: "hello",
	})

	w := httptest.NewRecorder()
	handler.SendMessage(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestSendMessage_EmptyContent(t *testing.T) {
	handler := handlers.NewHelpDeskHandler(&handlers.MockHelpDeskService{})
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/messages", handlers.SendMessageRequest{})
	req = handlers.WithAuthContext(req, "user123", models.RoleUser)

	w := httptest.NewRecorder()
	handler.SendMessage(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestGetHistory_ScopedToRequester(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		GetHistoryFunc: func(ctx context.Context, chatID string) ([]*models.ChatMessage, error) {
			assert.Equal(t, "user123", chatID)
			return []*models.ChatMessage{
				{ChatID: chatID, Content: "hi"},
				{ChatID: chatID, Content: "hello back"},
			}, nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "GET", "/helpdesk/messages", nil)
	req = handlers.WithAuthContext(req, "user123", models.RoleUser)

	w := httptest.NewRecorder()
	handler.GetHistory(w, req)

	var resp []*models.ChatMessage
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp, 2)
}

func TestGetQueue_ReturnsEntries(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		GetQueueFunc: func(ctx context.Context) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{
				{ChatID: "user123", LastMessage: "talk to somebody", IsHumanRequired: true},
			}, nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "GET", "/helpdesk/queue", nil)
	req = handlers.WithAuthContext(req, "agent1", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.GetQueue(w, req)

	var resp []*models.QueueEntry
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp, 1)
	assert.Equal(t, "user123", resp[0].ChatID)
}

func TestReplyToUser_RecordsAgentMessage(t *testing.T) {
	mock := &handlers.MockHelpDeskService{
		ReplyToUserFunc: func(ctx context.Context, agentID, userID, content string) (*models.ChatMessage, error) {
			assert.Equal(t, "agent1", agentID)
			assert.Equal(t, "user123", userID)
			return &models.ChatMessage{ChatID: userID, SenderID: agentID, SenderRole: models.SenderRoleAgent, Content: content}, nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/queue/user123/reply", handlers.AgentReplyRequest{
		Content: "I can help with that.",
	})
	req = handlers.WithAuthContext(req, "agent1", models.RoleAdmin)
	req = handlers.WithChiRouteContext(req, map[string]string{"userId": "user123"})

	w := httptest.NewRecorder()
	handler.ReplyToUser(w, req)

	var resp models.ChatMessage
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, models.SenderRoleAgent, resp.SenderRole)
}

func TestResolveChat_NoContent(t *testing.T) {
	resolved := ""
	mock := &handlers.MockHelpDeskService{
		ResolveChatFunc: func(ctx context.Context, chatID string) error {
			resolved = chatID
			return nil
		},
	}

	handler := handlers.NewHelpDeskHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/helpdesk/chats/user123/resolve", nil)
	req = handlers.WithAuthContext(req, "agent1", models.RoleAdmin)
	req = handlers.WithChiRouteContext(req, map[string]string{"chatId": "user123"})

	w := httptest.NewRecorder()
	handler.ResolveChat(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "user123", resolved)
}
