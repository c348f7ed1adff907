package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeTournament = "tournament"
	NotificationTypePayment    = "payment"
	NotificationTypeSystem     = "system"
)

type Notification struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UserID       uuid.UUID
	Title        string
	Message      string
	Type         string
	TournamentID *uuid.UUID
	Read         bool
}
