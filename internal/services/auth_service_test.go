package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	pkglogger "github.com/gatherly/gatherly/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "unit-test-signing-secret-32chars!"

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(testJWTSecret, 15*time.Minute, 7*24*time.Hour, 1*time.Hour)
}

func newTestAuthService(repo UserRepository, mfa MFAChallenger, email EmailSender, audit Auditor) *AuthService {
	logger := slog.Default()
	return NewAuthService(
		repo,
		newTestTokenManager(),
		mfa,
		email,
		audit,
		nil, // no timing delay in unit tests
		logger,
		pkglogger.NewAuditLogger(logger),
		"http://localhost:3011",
	)
}

// ============================================================================
// ValidateUser
// ============================================================================

func TestAuthService_ValidateUser_OversizedPasswordRejectedBeforeLookup(t *testing.T) {
	lookedUp := false
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			lookedUp = true
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	user, err := svc.ValidateUser(context.Background(), "user@example.com", strings.Repeat("a", 10001))

	assert.Equal(t, models.ErrBadRequest, err)
	assert.Nil(t, user)
	assert.False(t, lookedUp, "the storage layer must not be touched for oversized passwords")
}

func TestAuthService_ValidateUser_NoMatchShapeIsUniform(t *testing.T) {
	stored := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser})

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	// Unknown email and wrong password must be observably identical.
	missingUser, missingErr := svc.ValidateUser(context.Background(), "nobody@example.com", "whatever")
	wrongUser, wrongErr := svc.ValidateUser(context.Background(), "user@example.com", "wrong-password")

	assert.Nil(t, missingUser)
	assert.NoError(t, missingErr)
	assert.Nil(t, wrongUser)
	assert.NoError(t, wrongErr)
}

func TestAuthService_ValidateUser_Success_StripsHash(t *testing.T) {
	stored := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser})

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return stored, nil
		},
	}

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	user, err := svc.ValidateUser(context.Background(), "user@example.com", "correct-password")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user123", user.ID)
	assert.Empty(t, user.PasswordHash)
}

// ============================================================================
// Login
// ============================================================================

func TestAuthService_Login_WithoutMFA_IssuesTokenPair(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser, models.RoleAdmin})
	audit := &MockAuditor{}

	svc := newTestAuthService(&MockUserRepository{}, &MockChallenger{}, &MockEmailSender{}, audit)

	result, err := svc.Login(context.Background(), user)

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.False(t, result.MFARequired)
	assert.True(t, audit.Has(models.AuditLogin))

	// The payload carries exactly the subject and stored roles.
	claims, err := newTestTokenManager().Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.Subject)
	assert.Equal(t, []string{models.RoleUser, models.RoleAdmin}, claims.Roles)
	assert.Empty(t, claims.Type)
}

func TestAuthService_Login_WithMFA_ShortCircuitsWithoutTokens(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser})
	user.MFAEnabled = true

	challenger := &MockChallenger{}
	audit := &MockAuditor{}

	svc := newTestAuthService(&MockUserRepository{}, challenger, &MockEmailSender{}, audit)

	result, err := svc.Login(context.Background(), user)

	require.NoError(t, err)
	assert.True(t, result.MFARequired)
	assert.Equal(t, "user123", result.UserID)
	assert.Empty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken)
	assert.Equal(t, []string{"user123"}, challenger.Requested)
	assert.False(t, audit.Has(models.AuditLogin), "no LOGIN event until the challenge is verified")
}

// ============================================================================
// Refresh
// ============================================================================

func TestAuthService_Refresh_TamperedTokenFails(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{}, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	result, err := svc.Refresh(context.Background(), "tampered-token")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, result)
}

func TestAuthService_Refresh_DeletedUserFails(t *testing.T) {
	tm := newTestTokenManager()
	refreshToken, err := tm.IssueRefreshToken("gone-user", []string{models.RoleUser})
	require.NoError(t, err)

	svc := newTestAuthService(&MockUserRepository{}, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	result, err := svc.Refresh(context.Background(), refreshToken)

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, result)
}

func TestAuthService_Refresh_IssuesAccessTokenOnly(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser})

	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	tm := newTestTokenManager()
	refreshToken, err := tm.IssueRefreshToken(user.ID, user.Roles)
	require.NoError(t, err)

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	result, err := svc.Refresh(context.Background(), refreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken, "refresh tokens are not rotated")
}

// ============================================================================
// Password reset
// ============================================================================

func TestAuthService_RequestPasswordReset_UnknownEmailSilentlySucceeds(t *testing.T) {
	email := &MockEmailSender{}
	audit := &MockAuditor{}

	svc := newTestAuthService(&MockUserRepository{}, &MockChallenger{}, email, audit)

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")

	assert.NoError(t, err)
	assert.Empty(t, email.Sent)
	assert.Empty(t, audit.Actions)
}

func TestAuthService_RequestPasswordReset_SendsTokenLink(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "correct-password", []string{models.RoleUser})

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	email := &MockEmailSender{}
	audit := &MockAuditor{}

	svc := newTestAuthService(mockRepo, &MockChallenger{}, email, audit)

	err := svc.RequestPasswordReset(context.Background(), "user@example.com")

	require.NoError(t, err)
	require.Len(t, email.Sent, 1)
	assert.Equal(t, "user@example.com", email.Sent[0].To)
	assert.Contains(t, email.Sent[0].Body, "http://localhost:3011/password/reset?token=")
	assert.True(t, audit.Has(models.AuditRequestPasswordReset))
}

func TestAuthService_ResetPassword_RejectsNonResetToken(t *testing.T) {
	tm := newTestTokenManager()
	accessToken, err := tm.IssueAccessToken("user123", []string{models.RoleUser})
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "old-password", []string{models.RoleUser})
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	err = svc.ResetPassword(context.Background(), accessToken, "new-password")

	assert.Equal(t, models.ErrUnauthorized, err)
}

func TestAuthService_ResetPassword_ShortPasswordRejected(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "old-password", []string{models.RoleUser})
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	tm := newTestTokenManager()
	resetToken, err := tm.IssueResetToken(user.ID)
	require.NoError(t, err)

	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	err = svc.ResetPassword(context.Background(), resetToken, "short")

	assert.Equal(t, models.ErrBadRequest, err)
}

func TestAuthService_ResetPassword_DeletedUserFailsNotFound(t *testing.T) {
	tm := newTestTokenManager()
	resetToken, err := tm.IssueResetToken("gone-user")
	require.NoError(t, err)

	svc := newTestAuthService(&MockUserRepository{}, &MockChallenger{}, &MockEmailSender{}, &MockAuditor{})

	err = svc.ResetPassword(context.Background(), resetToken, "new-password")

	assert.Equal(t, models.ErrNotFound, err)
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "old-password", []string{models.RoleUser})
	oldHash := user.PasswordHash

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

	tm := newTestTokenManager()
	resetToken, err := tm.IssueResetToken(user.ID)
	require.NoError(t, err)

	audit := &MockAuditor{}
	svc := newTestAuthService(mockRepo, &MockChallenger{}, &MockEmailSender{}, audit)

	err = svc.ResetPassword(context.Background(), resetToken, "brand-new-password")

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.True(t, audit.Has(models.AuditResetPassword))
}
