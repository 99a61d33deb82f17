package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/gatherly/gatherly/internal/models"
	pkglogger "github.com/gatherly/gatherly/pkg/logger"
)

// TokenPairIssuer is the slice of AuthService that VerifyMFA needs to
// finish a challenged login without re-entering the MFA branch.
type TokenPairIssuer interface {
	IssueTokens(ctx context.Context, user *models.User) (*models.LoginResult, error)
}

// MFAService manages the emailed-code second factor. One code namespace
// serves both first-time activation and subsequent login challenges, and a
// code is single-use: verification clears it.
type MFAService struct {
	repo       UserRepository
	email      EmailSender
	audit      Auditor
	tokens     TokenPairIssuer
	logger     *slog.Logger
	codeExpiry time.Duration
}

// NewMFAService creates a new MFAService
func NewMFAService(
	repo UserRepository,
	email EmailSender,
	audit Auditor,
	tokens TokenPairIssuer,
	logger *slog.Logger,
	codeExpiry time.Duration,
) *MFAService {
	return &MFAService{
		repo:       repo,
		email:      email,
		audit:      audit,
		tokens:     tokens,
		logger:     logger,
		codeExpiry: codeExpiry,
	}
}

// generateCode returns a uniformly random six-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate MFA code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestCode issues a fresh challenge: a time-boxed code persisted on the
// user record and emailed in plaintext. A racing RequestCode/Verify pair is
// resolved last-write-wins; no locking is applied.
func (s *MFAService) RequestCode(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for MFA challenge", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	code, err := generateCode()
	if err != nil {
		s.logger.Error("failed to generate MFA code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expires := time.Now().Add(s.codeExpiry)
	user.MFACode = &code
	user.MFACodeExpires = &expires

	if _, err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("failed to persist MFA code", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	body := fmt.Sprintf("Your verification code is: %s. It expires in 5 minutes.", code)
	if err := s.email.Send(ctx, user.Email, "Your Verification Code", body); err != nil {
		s.logger.Error("failed to send MFA code email",
			slog.String("email", pkglogger.SanitizedEmail(user.Email)),
			slog.Any("error", err))
	}

	return nil
}

// Enable starts MFA activation by issuing a challenge code. The returned
// marker keeps the field names older clients expect; there is no TOTP
// secret or QR code in this design.
func (s *MFAService) Enable(ctx context.Context, userID string) (*models.MFASetup, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user for MFA enable", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.RequestCode(ctx, userID); err != nil {
		return nil, err
	}

	return &models.MFASetup{Secret: "EMAIL_MFA", QRCodeURL: ""}, nil
}

// Verify checks a submitted code against the stored challenge. Acceptance
// requires an exact match strictly before the expiry instant. Success marks
// MFA enabled, clears the code and completes the login by issuing tokens;
// failure is a single generic unauthorized outcome.
func (s *MFAService) Verify(ctx context.Context, userID, submittedCode string) (*models.LoginResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user for MFA verify", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.MFACode != nil && *user.MFACode == submittedCode &&
		user.MFACodeExpires != nil && time.Now().Before(*user.MFACodeExpires) {

		user.MFAEnabled = true
		user.MFACode = nil
		user.MFACodeExpires = nil

		if _, err := s.repo.Update(ctx, user); err != nil {
			s.logger.Error("failed to clear MFA code", slog.String("user_id", userID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.audit.Log(ctx, models.AuditVerifyMFASuccess, user.ID, nil)
		return s.tokens.IssueTokens(ctx, user)
	}

	s.audit.Log(ctx, models.AuditVerifyMFAFailed, user.ID, nil)
	return nil, models.ErrUnauthorized
}
