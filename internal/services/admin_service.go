package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatherly/gatherly/internal/models"
	pkgauth "github.com/gatherly/gatherly/pkg/auth"
)

// TemporaryPassword is assigned to provisioned accounts until the user
// resets it.
const TemporaryPassword = "Welcome123"

// ProvisionResult is returned when an admin creates a user.
type ProvisionResult struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

// AdminService handles administrative user management
type AdminService struct {
	repo   UserRepository
	audit  Auditor
	logger *slog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(repo UserRepository, audit Auditor, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}
}

// CreateUser provisions an account with the given roles and the fixed
// temporary password. A duplicate email surfaces as ErrConflict.
func (s *AdminService) CreateUser(ctx context.Context, email string, roles []string) (*ProvisionResult, error) {
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(TemporaryPassword)
	if err != nil {
		s.logger.Error("failed to hash temporary password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditProvisionUser, "", map[string]string{"email": email})

	return &ProvisionResult{
		User:              created.Sanitized(),
		TemporaryPassword: TemporaryPassword,
	}, nil
}

// GetAllUsers lists every account, sanitized.
func (s *AdminService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sanitized := make([]*models.User, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, u.Sanitized())
	}
	return sanitized, nil
}
