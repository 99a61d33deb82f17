package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	pkgauth "github.com/gatherly/gatherly/pkg/auth"
	pkglogger "github.com/gatherly/gatherly/pkg/logger"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id string) error
}

// MFAChallenger issues a fresh emailed challenge code for a user.
type MFAChallenger interface {
	RequestCode(ctx context.Context, userID string) error
}

// AuthService orchestrates credential validation, token lifecycle and the
// password-reset flow.
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	mfa         MFAChallenger
	email       EmailSender
	audit       Auditor
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	frontendURL string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	mfa MFAChallenger,
	email EmailSender,
	audit Auditor,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	frontendURL string,
) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		mfa:         mfa,
		email:       email,
		audit:       audit,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		frontendURL: frontendURL,
	}
}

// SetChallenger wires the MFA code issuer. AuthService and MFAService
// reference each other, so one side is attached after construction.
func (s *AuthService) SetChallenger(mfa MFAChallenger) {
	s.mfa = mfa
}

// ValidateUser checks an email/password pair. A missing user and a wrong
// password produce the identical (nil, nil) no-match outcome so response
// shape cannot be used to enumerate accounts. The only error short of a
// storage failure is the oversized-password guard, which fires before any
// lookup or hashing.
func (s *AuthService) ValidateUser(ctx context.Context, email, password string) (*models.User, error) {
	if len(password) > pkgauth.MaxLoginPasswordLen {
		return nil, models.ErrBadRequest
	}

	start := time.Now()

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.padFailure(start)
			return nil, nil
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		s.padFailure(start)
		return nil, nil
	}

	return user.Sanitized(), nil
}

// Login completes authentication for an already-validated user. When MFA is
// enabled the call short-circuits: a challenge code is issued and no tokens
// exist until VerifyMFA succeeds.
func (s *AuthService) Login(ctx context.Context, user *models.User) (*models.LoginResult, error) {
	if user.MFAEnabled {
		if err := s.mfa.RequestCode(ctx, user.ID); err != nil {
			return nil, err
		}
		return &models.LoginResult{MFARequired: true, UserID: user.ID}, nil
	}

	return s.IssueTokens(ctx, user)
}

// IssueTokens mints the access/refresh pair and records the LOGIN audit
// event. VerifyMFA calls this directly so a completed challenge cannot
// re-enter the MFA branch.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User) (*models.LoginResult, error) {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	accessToken, err := s.tm.IssueAccessToken(user.ID, roles)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.IssueRefreshToken(user.ID, roles)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditLogin, user.ID, nil)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &models.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is not rotated: it stays valid for its original lifetime.
// Expired, tampered and malformed tokens all fail identically.
func (s *AuthService) Refresh(ctx context.Context, token string) (*models.LoginResult, error) {
	claims, err := s.tm.Verify(token)
	if err != nil {
		s.logger.Info("refresh token verification failed")
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.Subject))
		} else {
			s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.Subject), slog.Any("error", err))
		}
		return nil, models.ErrUnauthorized
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	accessToken, err := s.tm.IssueAccessToken(user.ID, roles)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	return &models.LoginResult{AccessToken: accessToken}, nil
}

// RequestPasswordReset starts the reset flow. An unknown email succeeds
// silently — no error, no email — so the endpoint cannot confirm whether an
// address is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	resetToken, err := s.tm.IssueResetToken(user.ID)
	if err != nil {
		s.logger.Error("failed to issue reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditRequestPasswordReset, user.ID, nil)

	body := "Click here to reset your password: " + s.frontendURL + "/password/reset?token=" + resetToken
	if err := s.email.Send(ctx, user.Email, "Password Reset", body); err != nil {
		// Best-effort delivery; the flow already audited the request.
		s.logger.Error("failed to send password reset email",
			slog.String("email", pkglogger.SanitizedEmail(user.Email)),
			slog.Any("error", err))
	}

	return nil
}

// ResetPassword redeems a reset token. Only the new-password length check
// and a vanished account surface specific errors; everything else collapses
// into the generic unauthorized outcome.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tm.Verify(token)
	if err != nil {
		return models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeReset {
		return models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for password reset", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return models.ErrUnauthorized
	}

	if len(newPassword) < pkgauth.MinPasswordLen {
		return models.ErrBadRequest
	}

	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrUnauthorized
	}

	user.PasswordHash = newHash
	if _, err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("failed to persist new password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrUnauthorized
	}

	s.audit.Log(ctx, models.AuditResetPassword, user.ID, nil)
	return nil
}

func (s *AuthService) padFailure(start time.Time) {
	if s.timing != nil {
		s.timing.WaitFrom(start, false)
	}
}
