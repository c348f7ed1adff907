package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/handlers/render"
	"github.com/abdurrahman998/tournament/internal/handlers/userctx"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
)

type notificationResponse struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    time.Time  `json:"createdAt"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Type         string     `json:"type"`
	TournamentID *uuid.UUID `json:"tournamentId,omitempty"`
	Read         bool       `json:"read"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		CreatedAt:    n.CreatedAt,
		Title:        n.Title,
		Message:      n.Message,
		Type:         n.Type,
		TournamentID: n.TournamentID,
		Read:         n.Read,
	}
}

func handleListNotifications(notificationService notificationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		list, err := notificationService.List(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list notifications", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		notifications := make([]notificationResponse, 0, len(list))
		for _, n := range list {
			notifications = append(notifications, newNotificationResponse(n))
		}
		render.JSON(w, notifications)
	})
}

func handleMarkNotificationRead(notificationService notificationService, l logger.Logger) http.Handler {
	type request struct {
		ID   uuid.UUID `json:"id" validate:"required"`
		Read *bool     `json:"read"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		read := true
		if data.Read != nil {
			read = *data.Read
		}

		notification, err := notificationService.MarkRead(r.Context(), data.ID, user.ID, read)

		switch {
		case err == nil:
			render.JSON(w, newNotificationResponse(notification))
		case errors.Is(err, apperrors.ErrNotificationNotFound):
			render.ServiceError(w, "Notification not found", http.StatusNotFound)
		default:
			l.Error("Failed to mark notification", "error", err, "user_id", user.ID, "notification_id", data.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
