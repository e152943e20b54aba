package repository

import (
	"context"
	"fmt"

	"event-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, owner_id, name, start_time, end_time, event_code, require_approval,
	reveal_photos, reveal_after, custom_reveal_date, max_camera_roll_uploads, max_guests,
	participants, pending_approvals, total_photos, cover_image_url, created_at`

// EventRepository handles database operations for events
type EventRepository struct {
	db DBTX
}

// NewEventRepository creates a new event repository
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event. A taken event code yields ErrDuplicate.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.OwnerID, e.Name, e.StartTime, e.EndTime, e.EventCode, e.RequireApproval,
		string(e.RevealPhotos), string(e.RevealAfter), nullableTime(e.CustomRevealDate),
		e.MaxCameraRollUploads, e.MaxGuests, e.Participants, e.PendingApprovals,
		e.TotalPhotos, e.CoverImageURL, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create event: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves an event by ID and locks its row
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves an event by its join code
func (r *EventRepository) GetByCode(ctx context.Context, code string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_code = $1`
	return r.getOne(ctx, query, code)
}

func (r *EventRepository) getOne(ctx context.Context, query string, arg string) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("event not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// CodeExists checks if an event code is already taken
func (r *EventRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE event_code = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event code existence: %w", err)
	}
	return exists, nil
}

// ListByUser returns events the user owns, joined or asked to join
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1 OR $1 = ANY(participants) OR $1 = ANY(pending_approvals)
		ORDER BY start_time DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// AddParticipant admits a user, dropping any pending request.
// Returns false when the user already was a participant.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		UPDATE events
		SET participants = array_append(participants, $2),
		    pending_approvals = array_remove(pending_approvals, $2)
		WHERE id = $1 AND NOT ($2 = ANY(participants))
	`
	return r.update(ctx, "add participant", query, eventID, userID)
}

// AddPending records a join request. Returns false when the user is already
// pending or a participant.
func (r *EventRepository) AddPending(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		UPDATE events
		SET pending_approvals = array_append(pending_approvals, $2)
		WHERE id = $1 AND NOT ($2 = ANY(pending_approvals)) AND NOT ($2 = ANY(participants))
	`
	return r.update(ctx, "add pending approval", query, eventID, userID)
}

// PromotePending moves a pending user to participants.
// Returns false when the user was not pending.
func (r *EventRepository) PromotePending(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		UPDATE events
		SET participants = CASE WHEN $2 = ANY(participants) THEN participants
		                        ELSE array_append(participants, $2) END,
		    pending_approvals = array_remove(pending_approvals, $2)
		WHERE id = $1 AND $2 = ANY(pending_approvals)
	`
	return r.update(ctx, "approve pending user", query, eventID, userID)
}

// RemovePending drops a join request. Returns false when the user was not pending.
func (r *EventRepository) RemovePending(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		UPDATE events
		SET pending_approvals = array_remove(pending_approvals, $2)
		WHERE id = $1 AND $2 = ANY(pending_approvals)
	`
	return r.update(ctx, "remove pending user", query, eventID, userID)
}

func (r *EventRepository) update(ctx context.Context, op, query, eventID, userID string) (bool, error) {
	result, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return result.RowsAffected() > 0, nil
}

// IncrementTotalPhotos adds n to the photo counter and returns the new value
func (r *EventRepository) IncrementTotalPhotos(ctx context.Context, eventID string, n int) (int, error) {
	query := `UPDATE events SET total_photos = total_photos + $2 WHERE id = $1 RETURNING total_photos`
	var total int
	if err := r.db.QueryRow(ctx, query, eventID, n).Scan(&total); err != nil {
		if notFound(err) {
			return 0, fmt.Errorf("event not found: %w", ErrNotFound)
		}
		return 0, fmt.Errorf("failed to increment total photos: %w", err)
	}
	return total, nil
}

// SetCoverImage updates the cover image URL
func (r *EventRepository) SetCoverImage(ctx context.Context, eventID, url string) error {
	query := `UPDATE events SET cover_image_url = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, url, eventID)
	if err != nil {
		return fmt.Errorf("failed to update cover image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event not found: %w", ErrNotFound)
	}
	return nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		e            models.Event
		revealPhotos string
		revealAfter  string
	)
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.StartTime, &e.EndTime, &e.EventCode, &e.RequireApproval,
		&revealPhotos, &revealAfter, &e.CustomRevealDate, &e.MaxCameraRollUploads, &e.MaxGuests,
		&e.Participants, &e.PendingApprovals, &e.TotalPhotos, &e.CoverImageURL, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.RevealPhotos = models.RevealMode(revealPhotos)
	e.RevealAfter = models.RevealDelay(revealAfter)
	return &e, nil
}
