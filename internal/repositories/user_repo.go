package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = "id, email, password_hash, roles, mfa_enabled, mfa_code, mfa_code_expires, created_at, updated_at"

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Roles,
		&user.MFAEnabled, &user.MFACode, &user.MFACodeExpires,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByEmail looks up a user by exact email match. No case normalization is
// applied; emails are compared as stored.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if len(user.Roles) == 0 {
		user.Roles = []string{models.RoleUser}
	}

	query := `
		INSERT INTO users (id, email, password_hash, roles, mfa_enabled, mfa_code, mfa_code_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Roles,
		user.MFAEnabled, user.MFACode, user.MFACodeExpires,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return user, nil
}

// Update writes the mutable fields of a user record. Last write wins; no
// optimistic versioning is applied to the MFA code fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET password_hash = $2, roles = $3, mfa_enabled = $4, mfa_code = $5, mfa_code_expires = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.ID, user.PasswordHash, user.Roles,
		user.MFAEnabled, user.MFACode, user.MFACodeExpires, user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearExpiredMFACodes removes stale challenge codes left behind by logins
// that never completed verification.
func (r *UserRepository) ClearExpiredMFACodes(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET mfa_code = NULL, mfa_code_expires = NULL
		WHERE mfa_code IS NOT NULL AND mfa_code_expires < now()
	`

	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
