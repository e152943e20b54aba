package repository

import (
	"context"
	"errors"
	"time"

	"event-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

// Events is the event storage used by services
type Events interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// GetByIDForUpdate locks the event row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error)
	GetByCode(ctx context.Context, code string) (*models.Event, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Event, error)
	AddParticipant(ctx context.Context, eventID, userID string) (bool, error)
	AddPending(ctx context.Context, eventID, userID string) (bool, error)
	PromotePending(ctx context.Context, eventID, userID string) (bool, error)
	RemovePending(ctx context.Context, eventID, userID string) (bool, error)
	IncrementTotalPhotos(ctx context.Context, eventID string, n int) (int, error)
	SetCoverImage(ctx context.Context, eventID, url string) error
}

// Users is the account storage used by services
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	AddEventCreated(ctx context.Context, userID, eventID string) error
	AddEventJoined(ctx context.Context, userID, eventID string) error
}

// Photos is the photo metadata storage used by services
type Photos interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	Confirm(ctx context.Context, id string, at time.Time) (bool, error)
	ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*models.Photo, int, error)
	CountByUserSource(ctx context.Context, eventID, userID string, source models.PhotoSource) (int, error)
}

// Store groups the repositories and runs them inside transactions
type Store interface {
	Events() Events
	Users() Users
	Photos() Photos
	// InTx runs fn with repositories bound to one transaction
	InTx(ctx context.Context, fn func(Store) error) error
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is the pgx backed Store
type PostgresStore struct {
	db     DBTX
	events *EventRepository
	users  *UserRepository
	photos *PhotoRepository
}

// NewPostgresStore creates a store on top of a connection pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return newPostgresStore(pool)
}

func newPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{
		db:     db,
		events: NewEventRepository(db),
		users:  NewUserRepository(db),
		photos: NewPhotoRepository(db),
	}
}

func (s *PostgresStore) Events() Events { return s.events }
func (s *PostgresStore) Users() Users   { return s.users }
func (s *PostgresStore) Photos() Photos { return s.photos }

// InTx runs fn in a transaction; nested calls use savepoints
func (s *PostgresStore) InTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newPostgresStore(tx))
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
