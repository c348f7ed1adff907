package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
)

type NotificationRepo struct {
	DB DBTX
}

const createNotification = `-- name: CreateNotification
INSERT INTO notifications (id, created_at, user_id, title, message, type, tournament_id, read)
VALUES ($1, $2, $3, $4, $5, $6, $7, false)
RETURNING id, created_at, user_id, title, message, type, tournament_id, read
`

func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createNotification, n.ID, n.CreatedAt, n.UserID, n.Title, n.Message, n.Type, n.TournamentID)
	created, err := pgx.CollectOneRow(rows, rowToNotification)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listNotifications = `-- name: ListNotifications
SELECT id, created_at, user_id, title, message, type, tournament_id, read
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *NotificationRepo) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, _ := r.DB.Query(ctx, listNotifications, userID)
	notifications, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return notifications, nil
}

// Owner scoped on purpose, a user may not flip someone else's notification
const setNotificationRead = `-- name: SetNotificationRead
UPDATE notifications
SET read = $3
WHERE id = $1 AND user_id = $2
RETURNING id, created_at, user_id, title, message, type, tournament_id, read
`

func (r *NotificationRepo) SetRead(ctx context.Context, id uuid.UUID, userID uuid.UUID, read bool) (models.Notification, error) {
	rows, _ := r.DB.Query(ctx, setNotificationRead, id, userID, read)
	notification, err := pgx.CollectOneRow(rows, rowToNotification)

	switch {
	case err == nil:
		return notification, nil
	case errors.Is(err, pgx.ErrNoRows):
		return notification, apperrors.ErrNotificationNotFound
	default:
		return notification, fmt.Errorf("db error: %w", err)
	}
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.CreatedAt, &n.UserID, &n.Title, &n.Message, &n.Type, &n.TournamentID, &n.Read)
	return n, err
}
