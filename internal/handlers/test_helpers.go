package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds token claims to request context for testing
// authenticated endpoints
func WithAuthContext(req *http.Request, userID string, roles ...string) *http.Request {
	claims := &models.TokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	ValidateUserFunc         func(ctx context.Context, email, password string) (*models.User, error)
	LoginFunc                func(ctx context.Context, user *models.User) (*models.LoginResult, error)
	RefreshFunc              func(ctx context.Context, token string) (*models.LoginResult, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ResetPasswordFunc        func(ctx context.Context, token, newPassword string) error
}

func (m *MockAuthService) ValidateUser(ctx context.Context, email, password string) (*models.User, error) {
	if m.ValidateUserFunc == nil {
		return nil, nil
	}
	return m.ValidateUserFunc(ctx, email, password)
}

func (m *MockAuthService) Login(ctx context.Context, user *models.User) (*models.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.LoginFunc(ctx, user)
}

func (m *MockAuthService) Refresh(ctx context.Context, token string) (*models.LoginResult, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, token)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc == nil {
		return nil
	}
	return m.RequestPasswordResetFunc(ctx, email)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc == nil {
		return models.ErrUnauthorized
	}
	return m.ResetPasswordFunc(ctx, token, newPassword)
}

// MockMFAService implements MFAServiceInterface for testing
type MockMFAService struct {
	EnableFunc func(ctx context.Context, userID string) (*models.MFASetup, error)
	VerifyFunc func(ctx context.Context, userID, code string) (*models.LoginResult, error)
}

func (m *MockMFAService) Enable(ctx context.Context, userID string) (*models.MFASetup, error) {
	if m.EnableFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.EnableFunc(ctx, userID)
}

func (m *MockMFAService) Verify(ctx context.Context, userID, code string) (*models.LoginResult, error) {
	if m.VerifyFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.VerifyFunc(ctx, userID, code)
}

// MockHelpDeskService implements HelpDeskServiceInterface for testing
type MockHelpDeskService struct {
	SendMessageFunc func(ctx context.Context, userID, content string) (*services.SendMessageResult, error)
	GetHistoryFunc  func(ctx context.Context, chatID string) ([]*models.ChatMessage, error)
	GetQueueFunc    func(ctx context.Context) ([]*models.QueueEntry, error)
	ReplyToUserFunc func(ctx context.Context, agentID, userID, content string) (*models.ChatMessage, error)
	ResolveChatFunc func(ctx context.Context, chatID string) error
}

func (m *MockHelpDeskService) SendMessage(ctx context.Context, userID, content string) (*services.SendMessageResult, error) {
	if m.SendMessageFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SendMessageFunc(ctx, userID, content)
}

func (m *MockHelpDeskService) GetHistory(ctx context.Context, chatID string) ([]*models.ChatMessage, error) {
	if m.GetHistoryFunc == nil {
		return []*models.ChatMessage{}, nil
	}
	return m.GetHistoryFunc(ctx, chatID)
}

func (m *MockHelpDeskService) GetQueue(ctx context.Context) ([]*models.QueueEntry, error) {
	if m.GetQueueFunc == nil {
		return []*models.QueueEntry{}, nil
	}
	return m.GetQueueFunc(ctx)
}

func (m *MockHelpDeskService) ReplyToUser(ctx context.Context, agentID, userID, content string) (*models.ChatMessage, error) {
	if m.ReplyToUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ReplyToUserFunc(ctx, agentID, userID, content)
}

func (m *MockHelpDeskService) ResolveChat(ctx context.Context, chatID string) error {
	if m.ResolveChatFunc == nil {
		return nil
	}
	return m.ResolveChatFunc(ctx, chatID)
}

// MockEventService implements EventServiceInterface for testing
type MockEventService struct {
	CreateEventFunc       func(ctx context.Context, userID, title string, date time.Time, description string) (*models.Event, error)
	GetUserEventsFunc     func(ctx context.Context, userID string) ([]*models.Event, error)
	UpdateDescriptionFunc func(ctx context.Context, eventID, userID, newDescription string) (*models.Event, error)
	DeleteEventFunc       func(ctx context.Context, eventID, userID string) error
}

func (m *MockEventService) CreateEvent(ctx context.Context, userID, title string, date time.Time, description string) (*models.Event, error) {
	if m.CreateEventFunc == nil {
		return nil, models.ErrBadRequest
	}
	return m.CreateEventFunc(ctx, userID, title, date, description)
}

func (m *MockEventService) GetUserEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	if m.GetUserEventsFunc == nil {
		return []*models.Event{}, nil
	}
	return m.GetUserEventsFunc(ctx, userID)
}

func (m *MockEventService) UpdateDescription(ctx context.Context, eventID, userID, newDescription string) (*models.Event, error) {
	if m.UpdateDescriptionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateDescriptionFunc(ctx, eventID, userID, newDescription)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	if m.DeleteEventFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteEventFunc(ctx, eventID, userID)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	CreateUserFunc  func(ctx context.Context, email string, roles []string) (*services.ProvisionResult, error)
	GetAllUsersFunc func(ctx context.Context) ([]*models.User, error)
}

func (m *MockAdminService) CreateUser(ctx context.Context, email string, roles []string) (*services.ProvisionResult, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateUserFunc(ctx, email, roles)
}

func (m *MockAdminService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	if m.GetAllUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.GetAllUsersFunc(ctx)
}
