package services

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMFAService(repo UserRepository, email EmailSender, audit Auditor, tokens TokenPairIssuer) *MFAService {
	return NewMFAService(repo, email, audit, tokens, slog.Default(), 5*time.Minute)
}

// stubIssuer satisfies TokenPairIssuer without signing anything
type stubIssuer struct {
	issuedFor []string
}

func (s *stubIssuer) IssueTokens(_ context.Context, user *models.User) (*models.LoginResult, error) {
	s.issuedFor = append(s.issuedFor, user.ID)
	return &models.LoginResult{AccessToken: "stub-access", RefreshToken: "stub-refresh"}, nil
}

func TestMFAService_RequestCode_PersistsAndEmailsChallenge(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})

	var updated *models.User
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			updated = u
			return u, nil
		},
	}

	email := &MockEmailSender{}
	svc := newTestMFAService(mockRepo, email, &MockAuditor{}, &stubIssuer{})

	before := time.Now()
	err := svc.RequestCode(context.Background(), "user123")

	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.MFACode)
	require.NotNil(t, updated.MFACodeExpires)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), *updated.MFACode)
	assert.WithinDuration(t, before.Add(5*time.Minute), *updated.MFACodeExpires, 2*time.Second)

	require.Len(t, email.Sent, 1)
	assert.Equal(t, "user@example.com", email.Sent[0].To)
	assert.Contains(t, email.Sent[0].Body, *updated.MFACode)
	assert.Contains(t, email.Sent[0].Body, "expires in 5 minutes")
}

func TestMFAService_RequestCode_UnknownUser(t *testing.T) {
	svc := newTestMFAService(&MockUserRepository{}, &MockEmailSender{}, &MockAuditor{}, &stubIssuer{})

	err := svc.RequestCode(context.Background(), "missing")

	assert.Equal(t, models.ErrNotFound, err)
}

func TestMFAService_Enable_ReturnsFixedMarker(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	email := &MockEmailSender{}
	svc := newTestMFAService(mockRepo, email, &MockAuditor{}, &stubIssuer{})

	setup, err := svc.Enable(context.Background(), "user123")

	require.NoError(t, err)
	assert.Equal(t, "EMAIL_MFA", setup.Secret)
	assert.Empty(t, setup.QRCodeURL)
	assert.Len(t, email.Sent, 1, "enabling issues a challenge code immediately")
}

func TestMFAService_Verify_Success(t *testing.T) {
	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})
	user.MFACode = &code
	user.MFACodeExpires = &expires

	var updated *models.User
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			updated = u
			return u, nil
		},
	}

	audit := &MockAuditor{}
	issuer := &stubIssuer{}
	svc := newTestMFAService(mockRepo, &MockEmailSender{}, audit, issuer)

	result, err := svc.Verify(context.Background(), "user123", "123456")

	require.NoError(t, err)
	assert.Equal(t, "stub-access", result.AccessToken)
	assert.Equal(t, "stub-refresh", result.RefreshToken)
	assert.Equal(t, []string{"user123"}, issuer.issuedFor)
	assert.True(t, audit.Has(models.AuditVerifyMFASuccess))

	// MFA is enabled and the code is cleared: single use.
	require.NotNil(t, updated)
	assert.True(t, updated.MFAEnabled)
	assert.Nil(t, updated.MFACode)
	assert.Nil(t, updated.MFACodeExpires)
}

func TestMFAService_Verify_WrongCode(t *testing.T) {
	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})
	user.MFACode = &code
	user.MFACodeExpires = &expires

	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	audit := &MockAuditor{}
	svc := newTestMFAService(mockRepo, &MockEmailSender{}, audit, &stubIssuer{})

	result, err := svc.Verify(context.Background(), "user123", "654321")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, result)
	assert.True(t, audit.Has(models.AuditVerifyMFAFailed))
}

func TestMFAService_Verify_ExpiryBoundaryIsExclusive(t *testing.T) {
	code := "123456"
	expires := time.Now() // already reached: now < expiry is false
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})
	user.MFACode = &code
	user.MFACodeExpires = &expires

	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestMFAService(mockRepo, &MockEmailSender{}, &MockAuditor{}, &stubIssuer{})

	result, err := svc.Verify(context.Background(), "user123", "123456")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, result)
}

func TestMFAService_Verify_CodeIsSingleUse(t *testing.T) {
	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	user := NewTestUser("user123", "user@example.com", "password123", []string{models.RoleUser})
	user.MFACode = &code
	user.MFACodeExpires = &expires

	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			return u, nil
		},
	}

	svc := newTestMFAService(mockRepo, &MockEmailSender{}, &MockAuditor{}, &stubIssuer{})

	_, err := svc.Verify(context.Background(), "user123", "123456")
	require.NoError(t, err)

	// The stored code was cleared by the first verification.
	result, err := svc.Verify(context.Background(), "user123", "123456")
	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, result)
}

func TestMFAService_Verify_UnknownUser(t *testing.T) {
	svc := newTestMFAService(&MockUserRepository{}, &MockEmailSender{}, &MockAuditor{}, &stubIssuer{})

	result, err := svc.Verify(context.Background(), "missing", "123456")

	assert.Equal(t, models.ErrNotFound, err)
	assert.Nil(t, result)
}
