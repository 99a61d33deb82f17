package services

import (
	"context"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/ai"
	"github.com/gatherly/gatherly/internal/models"
	pkgauth "github.com/gatherly/gatherly/pkg/auth"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	ListFunc       func(ctx context.Context) ([]*models.User, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockChatMessageRepository is a mock implementation of ChatMessageRepository.
// Save assigns ids and timestamps and records messages so tests can assert
// on everything persisted.
type MockChatMessageRepository struct {
	mu       sync.Mutex
	Saved    []*models.ChatMessage
	History  []*models.ChatMessage
	Queues   []*models.QueueEntry
	SaveErr  error
	FindErr  error
	Resolved []string
}

func (m *MockChatMessageRepository) Save(_ context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = "msg-" + time.Now().Format("150405.000000000")
	message.CreatedAt = time.Now()
	m.Saved = append(m.Saved, message)
	m.History = append(m.History, message)
	return message, nil
}

func (m *MockChatMessageRepository) FindAllByChatID(_ context.Context, chatID string) ([]*models.ChatMessage, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	out := make([]*models.ChatMessage, 0)
	for _, msg := range m.History {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MockChatMessageRepository) GetActiveQueues(_ context.Context) ([]*models.QueueEntry, error) {
	return m.Queues, nil
}

func (m *MockChatMessageRepository) UpdateAllByChatID(_ context.Context, chatID string, isHumanRequired bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resolved = append(m.Resolved, chatID)
	for _, msg := range m.History {
		if msg.ChatID == chatID {
			msg.IsHumanRequired = isHumanRequired
		}
	}
	return nil
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	GetByIDFunc     func(ctx context.Context, id string) (*models.Event, error)
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]*models.Event, error)
	CreateFunc      func(ctx context.Context, event *models.Event) (*models.Event, error)
	UpdateFunc      func(ctx context.Context, event *models.Event) (*models.Event, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockEventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Event, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	event.ID = "event123"
	return event, nil
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, event)
	}
	return event, nil
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAuditor records audited actions for assertions
type MockAuditor struct {
	mu      sync.Mutex
	Actions []string
	UserIDs []string
}

func (m *MockAuditor) Log(_ context.Context, action, userID string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actions = append(m.Actions, action)
	m.UserIDs = append(m.UserIDs, userID)
}

func (m *MockAuditor) Has(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// MockEmailSender records sent emails
type MockEmailSender struct {
	mu      sync.Mutex
	Sent    []SentEmail
	SendErr error
}

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

func (m *MockEmailSender) Send(_ context.Context, to, subject, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

// MockResponder is a func-field mock of ai.Responder
type MockResponder struct {
	GenerateResponseFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	Calls                []ai.ChatRequest
}

func (m *MockResponder) GenerateResponse(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, req)
	}
	return &ai.ChatResponse{Text: "canned reply"}, nil
}

func (m *MockResponder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, 8), nil
}

// MockChallenger is a func-field mock of MFAChallenger
type MockChallenger struct {
	RequestCodeFunc func(ctx context.Context, userID string) error
	Requested       []string
}

func (m *MockChallenger) RequestCode(ctx context.Context, userID string) error {
	m.Requested = append(m.Requested, userID)
	if m.RequestCodeFunc != nil {
		return m.RequestCodeFunc(ctx, userID)
	}
	return nil
}

// NewTestUser creates a user with a bcrypt hash of the given password
func NewTestUser(id, email, password string, roles []string) *models.User {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
