package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

// KafkaWriter is the slice of kafka-go writer the service needs. Nil means
// events are not published anywhere, the service still stores notifications.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type NotificationService struct {
	storage repository.Storage
	writer  KafkaWriter
	logger  logger.Logger
}

func NewService(storage repository.Storage, writer KafkaWriter, l logger.Logger) *NotificationService {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &NotificationService{
		storage: storage,
		writer:  writer,
		logger:  l,
	}
}

// Enqueue stores the notification and publishes an event for out of band
// delivery (push, mail). Publish failures are logged and swallowed: callers
// treat the whole operation as fire and forget.
func (s *NotificationService) Enqueue(ctx context.Context, n models.Notification) error {
	created, err := s.storage.Notification().CreateNotification(ctx, n)
	if err != nil {
		return err
	}

	s.publish(ctx, created)

	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.storage.Notification().ListNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID, read bool) (models.Notification, error) {
	return s.storage.Notification().SetRead(ctx, id, userID, read)
}

type notificationEvent struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UserID       uuid.UUID  `json:"user_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Type         string     `json:"type"`
	TournamentID *uuid.UUID `json:"tournament_id,omitempty"`
}

func (s *NotificationService) publish(ctx context.Context, n models.Notification) {
	if s.writer == nil {
		return
	}

	value, err := json.Marshal(notificationEvent{
		ID:           n.ID,
		CreatedAt:    n.CreatedAt,
		UserID:       n.UserID,
		Title:        n.Title,
		Message:      n.Message,
		Type:         n.Type,
		TournamentID: n.TournamentID,
	})
	if err != nil {
		s.logger.Error("Failed to marshal notification event", "error", err, "notification_id", n.ID)
		return
	}

	msg := kafka.Message{
		Key:   []byte(n.UserID.String()),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Error("Failed to publish notification event", "error", err, "notification_id", n.ID)
	}
}
