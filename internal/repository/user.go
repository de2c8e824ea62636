package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wavelength-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrHandleConflict is returned by CreateWithHandle when the lowercased
// handle is already reserved by another user.
var ErrHandleConflict = errors.New("handle already reserved")

// ErrUserNotFound is returned when no user exists for the given id.
var ErrUserNotFound = errors.New("user not found")

const pgUniqueViolation = "23505"

// UserRepository handles database operations for users and handle
// reservations.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Exists checks whether a user record exists for the given id
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// CreateWithHandle creates the user record and its handle reservation in a
// single transaction. The reservation key is the lowercased handle; a
// unique violation on it aborts the whole transaction and surfaces
// ErrHandleConflict, so a user row is never visible without its
// reservation or vice versa.
func (r *UserRepository) CreateWithHandle(ctx context.Context, user *models.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reservationQuery := `
		INSERT INTO handle_reservations (handle_key, user_id)
		VALUES ($1, $2)
	`
	_, err = tx.Exec(ctx, reservationQuery, strings.ToLower(user.Handle), user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrHandleConflict, user.Handle)
		}
		return fmt.Errorf("failed to reserve handle: %w", err)
	}

	userQuery := `
		INSERT INTO users (id, display_name, email, avatar_url, handle, summary, following, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, userQuery,
		user.ID, user.DisplayName, user.Email, user.AvatarURL,
		user.Handle, user.Summary, user.Following, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, display_name, email, avatar_url, handle, summary, following, push_token, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.AvatarURL,
		&user.Handle, &user.Summary, &user.Following, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// List retrieves all users, optionally filtered by a case-insensitive
// substring match on handle or display name, ordered by handle.
func (r *UserRepository) List(ctx context.Context, filter string) ([]*models.User, error) {
	query := `
		SELECT id, display_name, email, avatar_url, handle, summary, following, push_token, created_at
		FROM users
		WHERE $1 = '' OR handle ILIKE '%' || $1 || '%' OR display_name ILIKE '%' || $1 || '%'
		ORDER BY handle
	`
	rows, err := r.db.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.DisplayName, &user.Email, &user.AvatarURL,
			&user.Handle, &user.Summary, &user.Following, &user.PushToken, &user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// AddFollowing adds targetID to the user's followed set. No-op when the
// edge already exists.
func (r *UserRepository) AddFollowing(ctx context.Context, userID, targetID string) error {
	query := `
		UPDATE users
		SET following = array_append(following, $2)
		WHERE id = $1 AND NOT (following @> ARRAY[$2])
	`
	_, err := r.db.Exec(ctx, query, userID, targetID)
	if err != nil {
		return fmt.Errorf("failed to add follow edge: %w", err)
	}
	return nil
}

// RemoveFollowing removes targetID from the user's followed set. No-op
// when the edge is absent.
func (r *UserRepository) RemoveFollowing(ctx context.Context, userID, targetID string) error {
	query := `
		UPDATE users
		SET following = array_remove(following, $2)
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, targetID)
	if err != nil {
		return fmt.Errorf("failed to remove follow edge: %w", err)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// UpdateAvatarURL updates the avatar URL for a user
func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	return nil
}
