package repository

import (
	"context"
	"fmt"

	"event-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, display_name, password_hash, push_token, events_created, events_joined, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.PushToken,
		nonNil(user.EventsCreated), nonNil(user.EventsJoined), user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByIDs retrieves the users with the given IDs, skipping unknown ones
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := []*models.User{}
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
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

// AddEventCreated appends an event to the user's created index
func (r *UserRepository) AddEventCreated(ctx context.Context, userID, eventID string) error {
	query := `
		UPDATE users SET events_created = array_append(events_created, $2)
		WHERE id = $1 AND NOT ($2 = ANY(events_created))
	`
	if _, err := r.db.Exec(ctx, query, userID, eventID); err != nil {
		return fmt.Errorf("failed to index created event: %w", err)
	}
	return nil
}

// AddEventJoined appends an event to the user's joined index
func (r *UserRepository) AddEventJoined(ctx context.Context, userID, eventID string) error {
	query := `
		UPDATE users SET events_joined = array_append(events_joined, $2)
		WHERE id = $1 AND NOT ($2 = ANY(events_joined))
	`
	if _, err := r.db.Exec(ctx, query, userID, eventID); err != nil {
		return fmt.Errorf("failed to index joined event: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.PushToken,
		&user.EventsCreated, &user.EventsJoined, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
